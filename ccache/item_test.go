// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package ccache

import (
	"testing"

	"github.com/DataDog/intrusive-go/doubly"
	"github.com/DataDog/intrusive-go/intrusive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItem(t *testing.T) {
	t.Run("Key", func(t *testing.T) {
		i := newItem(1337, "elite")
		require.Equal(t, 1337, i.Key())
	})

	t.Run("Value", func(t *testing.T) {
		i := newItem(1337, "elite")
		require.Equal(t, "elite", i.Value())
	})

	t.Run("Node", func(t *testing.T) {
		var list doubly.List[string, Item[int, string], *Item[int, string], intrusive.Raw[Item[int, string]]]
		first, second := newItem(1, "one"), newItem(2, "two")
		list.PushBackNode(intrusive.RawOf(first)).PushBackNode(intrusive.RawOf(second))

		assert.Same(t, second, doubly.Next(first))
		assert.Same(t, first, doubly.Prev(second))
		assert.Equal(t, "two", *doubly.PeekNext[string](first))

		*second.Payload() = "deux"
		assert.Equal(t, "deux", second.Value())

		list.Remove(first)
		assert.True(t, first.links.Next().IsNone())
		assert.Same(t, second, list.Head())
		require.NoError(t, list.Check())
	})
}
