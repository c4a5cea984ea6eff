package artifact

// FileKind tags a source file by what it holds.
type FileKind string

const (
	FileKindCode   FileKind = "code"
	FileKindMarkup FileKind = "markup"
	FileKindConfig FileKind = "config"
)

// SourceFile is one named file of an automation project.
type SourceFile struct {
	Name   string   `json:"name"`
	Kind   FileKind `json:"kind"`
	Source string   `json:"source"`
}

// SourceUnit is the ordered set of files making up one project.
type SourceUnit struct {
	Name  string       `json:"name"`
	Files []SourceFile `json:"files"`
}

// CodeFiles returns the files of kind code, preserving unit order.
func (u SourceUnit) CodeFiles() []SourceFile {
	out := make([]SourceFile, 0, len(u.Files))
	for _, f := range u.Files {
		if f.Kind == FileKindCode {
			out = append(out, f)
		}
	}
	return out
}

// FileNames lists every file name in unit order.
func (u SourceUnit) FileNames() []string {
	out := make([]string, 0, len(u.Files))
	for _, f := range u.Files {
		out = append(out, f.Name)
	}
	return out
}
