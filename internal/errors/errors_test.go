package errors

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

func TestParseError(t *testing.T) {
	err := NewParseErrorf("adana27.csv", "missing column %q", "MIKTAR")

	assert.Contains(t, err.Error(), "adana27.csv")
	assert.Contains(t, err.Error(), "MIKTAR")
	assert.True(t, Is(err, ErrParse))
	assert.False(t, Is(err, ErrRender))
}

func TestParseErrorWrapped(t *testing.T) {
	cause := Wrap(os.ErrNotExist, "open")
	wrapped := Wrap(NewParseError("x.csv", cause), "process file")

	var perr *ParseError
	require.True(t, As(wrapped, &perr))
	assert.Equal(t, "x.csv", perr.File)
	assert.True(t, Is(wrapped, ErrParse))
	assert.True(t, Is(wrapped, os.ErrNotExist))
}

func TestRenderError(t *testing.T) {
	err := NewRenderError(types.CategoryDonuk, "/nope/out.xlsx", New("permission denied"))

	assert.Contains(t, err.Error(), "donuk")
	assert.Contains(t, err.Error(), "/nope/out.xlsx")
	assert.True(t, Is(err, ErrRender))

	var rerr *RenderError
	require.True(t, As(Wrap(err, "render"), &rerr))
	assert.Equal(t, types.CategoryDonuk, rerr.Category)
}

func TestWithHint(t *testing.T) {
	err := WithHint(New("no header"), "check the delimiter")
	assert.Contains(t, FlattenHints(err), "check the delimiter")
}
