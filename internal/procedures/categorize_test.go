package procedures

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"ARTROPLASTIA TOTAL DE JOELHO", MajorSurgery},
		{"ARTRODESE DE GRANDES ARTICULACOES", MajorSurgery},
		{"OSTEOSSINTESE DE FEMUR", MajorSurgery},
		{"RECONSTRUCAO LIGAMENTAR", MajorSurgery},

		{"ARTROTOMIA DE GRANDES ARTICULACOES", SpecificProcedures},
		{"SINOVECTOMIA DE JOELHO", SpecificProcedures},

		// Foreign-body arthrotomy is re-routed to Other procedures.
		{"ARTROTOMIA P/ RETIRADA DE CORPO ESTRANHO", OtherProcedures},

		{"ARTROSCOPIA DIAGNOSTICA", MinorSurgery},
		{"DESBRIDAMENTO CIRURGICO", MinorSurgery},
		{"TENORRAFIA DE MAO", MinorSurgery},

		{"DRENAGEM DE ABSCESSO ARTICULAR", OtherProcedures},
		{"BIOPSIA SINOVIAL", OtherProcedures},
		{"PUNCAO ARTICULAR", OtherProcedures},

		{"TRATAMENTO CONSERVADOR", Conservative},
		{"TRATAMENTO CLINICO DE ARTRITE", Conservative},
		{"SEM PROCEDIMENTO CIRURGICO", Conservative},
		{"", Conservative},
		{"NA", Conservative},

		// Unmatched named procedures default to Other procedures.
		{"PROCEDIMENTO NAO LISTADO", OtherProcedures},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.name))
		})
	}
}

func TestCategorize_PrecedenceOverMinor(t *testing.T) {
	// A name matching both the major and minor keyword sets categorizes as
	// major because that rule is checked first.
	got := Categorize("ARTROPLASTIA COM DESBRIDAMENTO")
	assert.Equal(t, MajorSurgery, got)
}

func TestCountByCategory(t *testing.T) {
	names := []string{
		"ARTROPLASTIA DE QUADRIL",
		"ARTROPLASTIA DE JOELHO",
		"DRENAGEM DE ABSCESSO",
		"TRATAMENTO CONSERVADOR",
	}

	counts := CountByCategory(names)

	assert.Len(t, counts, 3)
	assert.Equal(t, MajorSurgery, counts[0].Category)
	assert.Equal(t, 2, counts[0].N)
	// Tie between Conservative and Other procedures resolves alphabetically.
	assert.Equal(t, Conservative, counts[1].Category)
	assert.Equal(t, OtherProcedures, counts[2].Category)
}

func TestCountByCategory_Empty(t *testing.T) {
	assert.Empty(t, CountByCategory(nil))
}
