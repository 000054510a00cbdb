package dataset

import (
	"fmt"
	"time"
)

// Admission is one hospital admission row from the SIH/SUS extract.
type Admission struct {
	Municipality  string    // residence municipality code (MUNIC_RES)
	BirthDate     time.Time // NASC
	Sex           int       // SEXO, 1 = male
	PostalCode    string    // CEP, trimmed
	AdmitDate     time.Time // DT_INTER
	DischargeDate time.Time // DT_SAIDA
	StayDays      float64   // DIAS_PERM
	Age           float64   // IDADE, years
	Died          bool      // MORTE
	ProcedureCode string    // PROC_REA
	ProcedureName string    // PROC_NOME
}

// ProxyKey synthesizes the patient identity used for readmission matching.
// The extract carries no patient identifier, so residence municipality,
// birth date, sex and postal code stand in for one.
func (a Admission) ProxyKey() string {
	return fmt.Sprintf("%s|%s|%d|%s",
		a.Municipality, a.BirthDate.Format("2006-01-02"), a.Sex, a.PostalCode)
}

// IsMale reports whether the admission belongs to a male patient
// (SIH coding: 1 = male).
func (a Admission) IsMale() bool {
	return a.Sex == 1
}

// IsValid reports whether the row satisfies the basic consistency
// requirements for analysis.
func (a Admission) IsValid() bool {
	if a.Municipality == "" || a.PostalCode == "" || a.ProcedureName == "" {
		return false
	}
	if a.BirthDate.IsZero() || a.AdmitDate.IsZero() || a.DischargeDate.IsZero() {
		return false
	}
	return true
}
