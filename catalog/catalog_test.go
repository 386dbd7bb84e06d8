package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
  "catalog": {
    "metadata": {"title": "NIST SP 800-53 Rev 5", "version": "5.1.1"},
    "groups": [
      {
        "id": "ia",
        "title": "Identification and Authentication",
        "controls": [
          {
            "id": "ia-5",
            "title": "Authenticator Management",
            "params": [{"id": "ia-5_prm_1", "label": "time period"}],
            "parts": [
              {
                "id": "ia-5_smt",
                "name": "statement",
                "parts": [
                  {"id": "ia-5_smt.a", "name": "item", "prose": "Verifying the identity of the individual receiving the authenticator."}
                ]
              }
            ],
            "controls": [
              {"id": "ia-5.1", "title": "Password-based Authentication"}
            ]
          }
        ]
      },
      {
        "id": "au",
        "title": "Audit and Accountability",
        "controls": [
          {"id": "au-2", "title": "Event Logging"}
        ]
      }
    ]
  }
}`

func TestLoad(t *testing.T) {
	cat, err := Load([]byte(sampleCatalog))
	require.NoError(t, err)

	assert.Equal(t, 3, cat.Len())
	assert.Equal(t, []string{"au-2", "ia-5", "ia-5.1"}, cat.IDs())

	ctrl, ok := cat.Get("ia-5")
	require.True(t, ok)
	assert.Equal(t, "ia", ctrl.Family)
	assert.Equal(t, "Authenticator Management", ctrl.Title)
	require.Len(t, ctrl.Statements, 1)
	assert.Equal(t, "ia-5_smt.a", ctrl.Statements[0].ID)
	require.Len(t, ctrl.Parameters, 1)
	assert.Equal(t, "ia-5_prm_1", ctrl.Parameters[0].ID)

	enh, ok := cat.Get("ia-5.1")
	require.True(t, ok)
	assert.True(t, enh.IsEnhancement())
	assert.Equal(t, "ia-5", enh.BaseID())
}

func TestLoad_MalformedControlID(t *testing.T) {
	bad := `{"catalog":{"groups":[{"id":"xx","controls":[{"id":"XX_99!","title":"Bad"}]}]}}`
	_, err := Load([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed identifier")
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load([]byte(`{"catalog":{"groups":[]}}`))
	require.Error(t, err)
}

func TestValidControlID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"ia-5", true},
		{"ac-2.3", true},
		{"au-12", true},
		{"IA-5", false},
		{"ia5", false},
		{"ia-5.3.1", false},
		{"xx-", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidControlID(tt.id), "id %q", tt.id)
	}
}

func TestNormalizeControlID(t *testing.T) {
	assert.Equal(t, "ia-5", NormalizeControlID(" IA-5 "))
	assert.Equal(t, "ac-2.3", NormalizeControlID("AC-2(3)"))
}

func TestBaselineSelection_Cumulative(t *testing.T) {
	cat, err := Load([]byte(sampleCatalog))
	require.NoError(t, err)

	sel := NewBaselineSelection(
		[]string{"au-2"},
		[]string{"ia-5"},
		[]string{"ia-5.1"},
	)

	assert.Equal(t, []string{"au-2"}, sel.Controls(BaselineLow, cat))
	assert.Equal(t, []string{"au-2", "ia-5"}, sel.Controls(BaselineModerate, cat))
	assert.Equal(t, []string{"au-2", "ia-5", "ia-5.1"}, sel.Controls(BaselineHigh, cat))
}

func TestBaselineSelection_DropsUnknownControls(t *testing.T) {
	cat, err := Load([]byte(sampleCatalog))
	require.NoError(t, err)

	sel := NewBaselineSelection([]string{"au-2", "zz-1"}, nil, nil)
	assert.Equal(t, []string{"au-2"}, sel.Controls(BaselineLow, cat))
}

func TestParseBaseline(t *testing.T) {
	b, err := ParseBaseline("moderate")
	require.NoError(t, err)
	assert.Equal(t, BaselineModerate, b)

	_, err = ParseBaseline("extreme")
	assert.Error(t, err)
}
