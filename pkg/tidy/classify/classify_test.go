package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Table(t *testing.T) {
	t.Parallel()

	for ext, want := range Table() {
		if got := Classify(ext); got != want {
			t.Errorf("Classify(%q) = %v, want %v", ext, got, want)
		}
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want Category
	}{
		{".jpg", Images},
		{"jpg", Images},
		{".JPG", Images},
		{".Pdf", Documents},
		{".hwpx", Documents},
		{".mkv", Videos},
		{".flac", Music},
		{".7z", Archives},
		{".dmg", Installers},
		{".go", Code},
		{".xyz", Others},
		{"", Others},
		{".", Others},
		{"  .png  ", Images},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.ext))
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{in: "jpg", want: ".jpg"},
		{in: ".JPG", want: ".jpg"},
		{in: " Pdf ", want: ".pdf"},
		{in: ".tar.gz", want: ".tar.gz"},
		{in: ".", want: ""},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestCategory_ExhaustiveLookups(t *testing.T) {
	t.Parallel()

	folders := make(map[string]bool)
	for _, c := range All() {
		require.NotEmpty(t, c.Folder(), "folder for %d", c)
		require.NotEmpty(t, c.Label(), "label for %d", c)
		require.NotEmpty(t, c.LabelFor("ko"), "ko label for %d", c)
		assert.Equal(t, c, Parse(c.String()))
		assert.False(t, folders[c.Folder()], "duplicate folder %s", c.Folder())
		folders[c.Folder()] = true
	}
	assert.Len(t, folders, 8)
}

func TestCategory_LabelFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "이미지", Images.LabelFor("ko"))
	assert.Equal(t, "기타", Others.LabelFor("KO"))
	assert.Equal(t, "Images", Images.LabelFor("en"))
	assert.Equal(t, "Images", Images.LabelFor(""))
}

func TestCategory_Text(t *testing.T) {
	t.Parallel()

	b, err := Code.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "code", string(b))

	var c Category
	require.NoError(t, c.UnmarshalText([]byte("Music")))
	assert.Equal(t, Music, c)

	require.NoError(t, c.UnmarshalText([]byte("bogus")))
	assert.Equal(t, Others, c)
}

func TestOverrides(t *testing.T) {
	t.Parallel()

	o := NewOverrides([]Mapping{
		{Extension: "XYZ", Category: Documents, Folder: "Papers"},
		{Extension: ".jpg", Category: Others, Folder: ""},
		{Extension: "", Category: Code},
	})

	assert.Equal(t, 2, o.Len())
	assert.Equal(t, Documents, o.Classify(".xyz"))
	assert.Equal(t, "Papers", o.Folder(".XYZ"))
	assert.Equal(t, Others, o.Classify(".jpg"))
	assert.Equal(t, "Others", o.Folder(".jpg"), "empty folder falls back to the category default")
	assert.Equal(t, Videos, o.Classify(".mp4"), "unmapped extension falls back to the table")
	assert.Equal(t, "Videos", o.Folder(".mp4"))

	var nilOverrides *Overrides
	assert.Equal(t, Images, nilOverrides.Classify(".png"))
	assert.Equal(t, 0, nilOverrides.Len())
}
