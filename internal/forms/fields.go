package forms

// Choice is one option of a select field
type Choice struct {
	Value    string
	Label    string
	Selected bool
}

// Field describes how a form input renders
type Field struct {
	Name     string
	Label    string
	Help     string
	Type     string // text, textarea, select, file, password, email
	Value    string
	Required bool
	Choices  []Choice
	Current  string // URL of an already stored file
	Errors   []string
}
