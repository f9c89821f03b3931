package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrawlerErrorMessage(t *testing.T) {
	cause := stderrors.New("net::ERR_CONNECTION_RESET")
	err := NewNavigation("https://example.com/products/category-a?page=2", cause)

	assert.Contains(t, err.Error(), "[navigation]")
	assert.Contains(t, err.Error(), "category-a?page=2")
	assert.Contains(t, err.Error(), "ERR_CONNECTION_RESET")
	assert.ErrorIs(t, err, cause)

	plain := NewValidation("config", "base url is empty")
	assert.Equal(t, "[validation] config: base url is empty", plain.Error())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"navigation", NewNavigation("u", nil), true},
		{"network", NewNetwork("u", "reset", nil), true},
		{"selector timeout", NewSelectorTimeout("u", "div.bx-product", nil), false},
		{"robots", NewRobots("u"), false},
		{"persistence", NewPersistence("out.json", "rename", nil), false},
		{"wrapped navigation", fmt.Errorf("page 3: %w", NewNavigation("u", nil)), true},
		{"plain error", stderrors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("walk: %w", NewSelectorTimeout("u", "div.bx-product", nil))

	assert.True(t, IsType(err, ErrorTypeSelectorTimeout))
	assert.False(t, IsType(err, ErrorTypeNavigation))
	assert.False(t, IsType(stderrors.New("boom"), ErrorTypeNavigation))
}
