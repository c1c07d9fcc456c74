// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/acervo/pkg/pointer"
)

func TestToAndVal(t *testing.T) {
	assert.Equal(t, "isbn", pointer.Val(pointer.To("isbn")))
	assert.Equal(t, 0, pointer.Val[int](nil))
}

func TestEqual(t *testing.T) {
	assert.True(t, pointer.Equal[string](nil, nil))
	assert.True(t, pointer.Equal(pointer.To("a"), pointer.To("a")))
	assert.False(t, pointer.Equal(pointer.To("a"), nil))
	assert.False(t, pointer.Equal(pointer.To("a"), pointer.To("b")))
}
