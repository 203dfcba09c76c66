package validation_test

import (
	"errors"
	"testing"

	"subsonic-backend/internal/domain"
	"subsonic-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsContactEmail(t *testing.T) {
	valid := []string{
		"a@b.cl",
		"ana.perez+eventos@example.com",
		"x@sub.domain.org",
		"ñandú@correo.cl",
	}
	for _, e := range valid {
		assert.True(t, validation.IsContactEmail(e), e)
	}

	invalid := []string{
		"",
		"ana",
		"ana@",
		"@example.com",
		"ana@example",
		"ana perez@example.com",
		"ana@exa mple.com",
		"ana@@example.com",
		"ana\u00a0x@example.com",
		"ana@example\u2028.com",
		"ana@exa\u3000mple.com",
		"\ufeffana@example.com",
		"ana\u2009@example.com",
	}
	for _, e := range invalid {
		assert.False(t, validation.IsContactEmail(e), e)
	}
}

func validRequest() domain.ContactRequest {
	return domain.ContactRequest{
		Nombre:     "Ana",
		Email:      "ana@example.com",
		TipoEvento: "matrimonio",
		Fecha:      "2025-03-15",
		Mensaje:    "Hola",
	}
}

func TestContactMessage(t *testing.T) {
	v := validation.New()

	t.Run("Should accept a complete request", func(t *testing.T) {
		req := validRequest()
		assert.NoError(t, v.Struct(&req))
	})

	t.Run("Should report missing fields", func(t *testing.T) {
		req := validRequest()
		req.Mensaje = ""
		err := v.Struct(&req)
		require.Error(t, err)
		assert.Equal(t, validation.MsgRequiredFields, validation.ContactMessage(err))
	})

	t.Run("Should prefer missing fields over a bad email", func(t *testing.T) {
		req := validRequest()
		req.Email = "nope"
		req.Nombre = ""
		err := v.Struct(&req)
		require.Error(t, err)
		assert.Equal(t, validation.MsgRequiredFields, validation.ContactMessage(err))
	})

	t.Run("Should report a bad email", func(t *testing.T) {
		req := validRequest()
		req.Email = "ana@example"
		err := v.Struct(&req)
		require.Error(t, err)
		assert.Equal(t, validation.MsgInvalidEmail, validation.ContactMessage(err))
	})

	t.Run("Should fall back for other errors", func(t *testing.T) {
		assert.Equal(t, validation.MsgInvalidInput, validation.ContactMessage(errors.New("boom")))
	})
}

func TestFormatValidationErrors(t *testing.T) {
	v := validation.New()
	req := validRequest()
	req.TipoEvento = ""
	req.Email = "bad"

	msgs := validation.FormatValidationErrors(v.Struct(&req))
	assert.ElementsMatch(t, []string{
		"Email: Formato de email inválido",
		"Tipo de evento: Requerido",
	}, msgs)

	assert.Nil(t, validation.FormatValidationErrors(nil))
	assert.Equal(t, []string{"boom"}, validation.FormatValidationErrors(errors.New("boom")))
}
