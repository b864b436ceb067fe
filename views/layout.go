package views

import (
	"github.com/rohanthewiz/element"

	"schedulehub/views/components"
)

// AppTitle is the browser title of every page
const AppTitle = "Family Schedule"

// BaseLayout creates the base HTML structure for all pages.
// Takes CSS styles, additional head content, and a body component.
func BaseLayout(styles string, headContent string, bodyComponent element.Component) string {
	b := element.NewBuilder()

	b.Html().R(
		b.Head().R(
			b.Meta("charset", "UTF-8"),
			b.Meta("viewport", "width=device-width, initial-scale=1.0"),
			b.Title().T(AppTitle),
			b.Link("rel", "stylesheet", "href", "/static/css/dashboard.css"),

			b.Wrap(func() {
				if styles != "" {
					b.Style().T(styles)
				}
			}),
			b.Wrap(func() {
				if headContent != "" {
					b.T(headContent)
				}
			}),
		),
		b.Body().R(
			element.RenderComponents(b, bodyComponent),
			b.Script("src", "/static/js/dashboard.js").R(),
		),
	)

	return b.String()
}

// SimpleLayout creates a minimal HTML layout without the dashboard header.
// Used for the join screen.
func SimpleLayout(title string, content element.Component) string {
	b := element.NewBuilder()

	b.Html().R(
		b.Head().R(
			b.Meta("charset", "UTF-8"),
			b.Meta("viewport", "width=device-width, initial-scale=1.0"),
			b.Title().T(title),
			b.Link("rel", "stylesheet", "href", "/static/css/dashboard.css"),
		),
		b.Body().R(
			element.RenderComponents(b, content),
			b.Script("src", "/static/js/dashboard.js").R(),
		),
	)

	return b.String()
}

// PageWithHeader lays the dashboard header over the page content
type PageWithHeader struct {
	Header  components.Header
	Content element.Component
}

func (p PageWithHeader) Render(b *element.Builder) (x any) {
	b.DivClass("app-container").R(
		element.RenderComponents(b, p.Header),
		b.Main("id", "content-wrapper", "class", "content-wrapper").R(
			element.RenderComponents(b, p.Content),
		),
	)
	return
}
