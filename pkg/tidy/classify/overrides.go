package classify

// Mapping is a single user-defined extension override.
type Mapping struct {
	Extension string   `json:"extension" yaml:"extension"`
	Category  Category `json:"category" yaml:"category"`
	Folder    string   `json:"target_folder" yaml:"target_folder"`
}

// Overrides classifies with stored mappings taking precedence over the
// compiled table. A nil *Overrides behaves like Classify.
type Overrides struct {
	byExt map[string]Mapping
}

// NewOverrides indexes mappings by normalized extension. Later entries
// for the same extension replace earlier ones.
func NewOverrides(mappings []Mapping) *Overrides {
	o := &Overrides{byExt: make(map[string]Mapping, len(mappings))}
	for _, m := range mappings {
		ext := Normalize(m.Extension)
		if ext == "" {
			continue
		}
		m.Extension = ext
		o.byExt[ext] = m
	}
	return o
}

// Classify returns the overridden category if one exists, otherwise the
// built-in classification.
func (o *Overrides) Classify(ext string) Category {
	if o != nil {
		if m, ok := o.byExt[Normalize(ext)]; ok {
			return m.Category
		}
	}
	return Classify(ext)
}

// Folder returns the target folder for an extension: the mapping's folder
// when overridden, otherwise the category's default folder.
func (o *Overrides) Folder(ext string) string {
	if o != nil {
		if m, ok := o.byExt[Normalize(ext)]; ok && m.Folder != "" {
			return m.Folder
		}
	}
	return Classify(ext).Folder()
}

// Len reports how many overrides are loaded.
func (o *Overrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.byExt)
}

// Builtin classifies with the compiled table only.
type Builtin struct{}

// Classify implements the classifier contract over the compiled table.
func (Builtin) Classify(ext string) Category { return Classify(ext) }

// Folder returns the category's default folder.
func (Builtin) Folder(ext string) string { return Classify(ext).Folder() }
