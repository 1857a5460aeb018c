package assets

// Built-in asset names.
const (
	DefaultStyleName    = "preview"
	DefaultTemplateName = "page"
)

// Loader loads stylesheets and templates by name, without extension.
type Loader interface {
	LoadStyle(name string) (string, error)
	LoadTemplate(name string) (string, error)
}
