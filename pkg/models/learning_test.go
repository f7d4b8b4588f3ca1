package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnowledgeItemSuccessRate(t *testing.T) {
	item := KnowledgeItem{SuccessCount: 4, FailureCount: 1}
	assert.InDelta(t, 0.8, item.SuccessRate(), 0.0001)
	assert.Equal(t, 5, item.UsageCount())

	empty := KnowledgeItem{}
	assert.Equal(t, 0.0, empty.SuccessRate())
}

func TestErrorPatternNamed(t *testing.T) {
	p := ErrorPattern{Members: []string{"a", "b"}}
	assert.False(t, p.Named())
	p.Members = append(p.Members, "c")
	assert.True(t, p.Named())
}
