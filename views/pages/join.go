package pages

import (
	"github.com/rohanthewiz/element"

	"schedulehub/views"
	"schedulehub/views/components"
)

// RenderJoin creates the screen for starting or joining a household
func RenderJoin(message string) string {
	return views.SimpleLayout(views.AppTitle, JoinContent{Message: message})
}

// JoinContent has one form to create a household and one to join by code
type JoinContent struct {
	Message string
}

func (j JoinContent) Render(b *element.Builder) (x any) {
	b.DivClass("join-page").R(
		b.H1().T(views.AppTitle),
		b.Wrap(func() {
			if j.Message != "" {
				b.P("id", "join-message", "class", "banner banner-error").T(components.Esc(j.Message))
			}
		}),

		b.Form("id", "join-form", "class", "join-form", "onsubmit", "return joinRoom(event)").R(
			b.H2().T("Join a household"),
			b.Label("for", "join-code").T("Household code"),
			b.Input("type", "text", "id", "join-code", "name", "code",
				"maxlength", "5", "autocomplete", "off", "required", "required"),
			b.Label("for", "join-member").T("Your name"),
			b.Input("type", "text", "id", "join-member", "name", "member", "required", "required"),
			b.Button("type", "submit", "class", "btn btn-primary").T("Join"),
		),

		b.Form("id", "create-form", "class", "join-form", "onsubmit", "return createRoom(event)").R(
			b.H2().T("Start a new household"),
			b.Label("for", "create-member").T("Your name"),
			b.Input("type", "text", "id", "create-member", "name", "member", "required", "required"),
			b.Button("type", "submit", "class", "btn btn-secondary").T("Create"),
		),
	)
	return
}
