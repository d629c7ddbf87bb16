package sitegen

// PageModel is the data behind one rendered selection page.
type PageModel struct {
	SiteName  string
	// Root is the relative path from the page back to the site root ("", "../", "../../").
	Root      string
	Empty     bool
	Version   string
	OS        string
	OSTitle   string
	Versions  []OptionModel
	OSOptions []OptionModel
	Files     []FileModel
}

// OptionModel is one entry of the version or OS control.
type OptionModel struct {
	Key      string
	Label    string
	Href     string
	Selected bool
}

// FileModel is one row of the file table.
type FileModel struct {
	Name         string
	ModifiedDate string
	SizeLabel    string
	Required     bool
	URL          string
}

// Page is a rendered page's location and data.
type Page struct {
	// Path is slash separated and relative to the output directory.
	Path  string
	Model PageModel
}

// SimpleLink is one anchor of the plain link index.
type SimpleLink struct {
	Name string
	Href string
}
