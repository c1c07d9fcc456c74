// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package convert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/acervo/pkg/convert"
	"github.com/taibuivan/acervo/pkg/pointer"
)

func TestTextOrNil(t *testing.T) {
	assert.Nil(t, convert.TextOrNil(""))
	assert.Nil(t, convert.TextOrNil("  \t"))

	got := convert.TextOrNil("  12  ")
	require.NotNil(t, got)
	assert.Equal(t, "12", *got)
}

func TestNilIfBlank(t *testing.T) {
	assert.Nil(t, convert.NilIfBlank(nil))
	assert.Nil(t, convert.NilIfBlank(pointer.To("")))
	assert.Nil(t, convert.NilIfBlank(pointer.To("   ")))

	value := pointer.To("vol. 3")
	assert.Same(t, value, convert.NilIfBlank(value))
}

func TestText(t *testing.T) {
	assert.Equal(t, "", convert.Text(nil))
	assert.Equal(t, "ISSN", convert.Text(pointer.To("ISSN")))
}
