// Package classify maps file extensions to a fixed set of categories.
//
// Classification is a pure table lookup. The compiled-in table can be
// widened or narrowed at runtime through Overrides, which holds the
// user-editable extension mappings persisted by the store.
package classify

import (
	"strings"
)

// Category is a closed set of file categories.
type Category int

// Categories in display order.
const (
	Images Category = iota
	Documents
	Videos
	Music
	Archives
	Installers
	Code
	Others
)

// All returns every category in display order.
func All() []Category {
	return []Category{Images, Documents, Videos, Music, Archives, Installers, Code, Others}
}

// String returns the lowercase tag used for persistence ("images", "code", ...).
func (c Category) String() string {
	switch c {
	case Images:
		return "images"
	case Documents:
		return "documents"
	case Videos:
		return "videos"
	case Music:
		return "music"
	case Archives:
		return "archives"
	case Installers:
		return "installers"
	case Code:
		return "code"
	case Others:
		return "others"
	}
	return "others"
}

// Folder returns the folder name files of this category are organized into.
func (c Category) Folder() string {
	switch c {
	case Images:
		return "Images"
	case Documents:
		return "Documents"
	case Videos:
		return "Videos"
	case Music:
		return "Music"
	case Archives:
		return "Archives"
	case Installers:
		return "Installers"
	case Code:
		return "Code"
	case Others:
		return "Others"
	}
	return "Others"
}

// Label returns the English display label.
func (c Category) Label() string {
	switch c {
	case Images:
		return "Images"
	case Documents:
		return "Documents"
	case Videos:
		return "Videos"
	case Music:
		return "Music"
	case Archives:
		return "Archives"
	case Installers:
		return "Installers"
	case Code:
		return "Code"
	case Others:
		return "Others"
	}
	return "Others"
}

// LabelFor returns the display label for a UI language.
// Only "ko" has a translation; every other language gets the English label.
func (c Category) LabelFor(lang string) string {
	if !strings.EqualFold(lang, "ko") {
		return c.Label()
	}
	switch c {
	case Images:
		return "이미지"
	case Documents:
		return "문서"
	case Videos:
		return "동영상"
	case Music:
		return "음악"
	case Archives:
		return "압축파일"
	case Installers:
		return "설치파일"
	case Code:
		return "코드"
	case Others:
		return "기타"
	}
	return "기타"
}

// MarshalText encodes the category as its lowercase tag.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a lowercase tag. Unknown tags decode to Others.
func (c *Category) UnmarshalText(b []byte) error {
	*c = Parse(string(b))
	return nil
}

// Parse returns the category for a tag or folder name, case-insensitively.
// Unknown names return Others.
func Parse(s string) Category {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range All() {
		if s == c.String() {
			return c
		}
	}
	return Others
}

// Classify returns the category of an extension. The leading dot is
// optional and the lookup is case-insensitive. Unknown and empty
// extensions are Others.
func Classify(ext string) Category {
	if c, ok := builtin[Normalize(ext)]; ok {
		return c
	}
	return Others
}

// Normalize lowercases an extension and ensures a leading dot.
// The empty string stays empty.
func Normalize(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Table returns a copy of the built-in extension table.
func Table() map[string]Category {
	out := make(map[string]Category, len(builtin))
	for ext, c := range builtin {
		out[ext] = c
	}
	return out
}

var builtin = buildTable(map[Category][]string{
	Images: {
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp", ".ico",
		".psd", ".ai", ".tiff", ".raw", ".heic",
	},
	Documents: {
		".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".hwp",
		".hwpx", ".txt", ".rtf", ".odt", ".ods", ".odp", ".pages", ".numbers",
		".key", ".epub",
	},
	Videos: {
		".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm", ".m4v",
		".mpeg", ".mpg", ".3gp",
	},
	Music: {
		".mp3", ".wav", ".flac", ".aac", ".m4a", ".wma", ".ogg", ".opus",
		".aiff", ".alac",
	},
	Archives: {
		".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz", ".lz", ".lzma",
		".cab", ".iso",
	},
	Installers: {
		".exe", ".msi", ".dmg", ".pkg", ".deb", ".rpm", ".app", ".apk", ".appx",
	},
	Code: {
		".py", ".js", ".ts", ".tsx", ".jsx", ".html", ".css", ".scss", ".sass",
		".less", ".java", ".cpp", ".c", ".h", ".hpp", ".cs", ".rs", ".go",
		".rb", ".php", ".swift", ".kt", ".scala", ".json", ".xml", ".yaml",
		".yml", ".toml", ".md", ".sh", ".bash", ".zsh", ".ps1", ".sql", ".r",
		".m", ".lua", ".pl", ".vim", ".vue", ".svelte",
	},
})

func buildTable(groups map[Category][]string) map[string]Category {
	table := make(map[string]Category)
	for c, exts := range groups {
		for _, ext := range exts {
			table[ext] = c
		}
	}
	return table
}
