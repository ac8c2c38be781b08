package models

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/terra-energy/inspecciones/internal/checklist"
)

func TestInspectionTransitions(t *testing.T) {
	tests := []struct {
		from, to EstadoInspeccion
		want     bool
	}{
		{InspeccionProgramada, InspeccionEnProgreso, true},
		{InspeccionProgramada, InspeccionCancelada, true},
		{InspeccionProgramada, InspeccionCompletada, false},
		{InspeccionEnProgreso, InspeccionCompletada, true},
		{InspeccionEnProgreso, InspeccionCancelada, true},
		{InspeccionEnProgreso, InspeccionProgramada, false},
		{InspeccionCompletada, InspeccionCancelada, false},
		{InspeccionCancelada, InspeccionProgramada, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	if !InspeccionCompletada.Terminal() || !InspeccionCancelada.Terminal() {
		t.Error("completed and cancelled inspections must be terminal")
	}
	if InspeccionProgramada.Terminal() {
		t.Error("scheduled inspection reported terminal")
	}
}

func TestRespuestaSlotsRoundTrip(t *testing.T) {
	values := []checklist.Value{
		checklist.Bool(false),
		checklist.Number(12.5),
		checklist.Text("fisura menor"),
		checklist.Date("2024-05-10"),
		checklist.Duration("01:30"),
		nil,
	}
	for _, v := range values {
		r := NewRespuesta("insp", "req", "tipo", 0, v)
		var kind checklist.Kind
		if v != nil {
			kind = v.Kind()
		} else {
			kind = checklist.KindText
		}
		got := checklist.Resolve(r.Slots(), kind)
		if !cmp.Equal(got, v) {
			t.Errorf("round trip of %#v gave %#v", v, got)
		}
	}
}

func TestRespuestaRow(t *testing.T) {
	sec := &Seccion{Nombre: "Estructura", Orden: 2}
	sub := &Subcategoria{Nombre: "Soldaduras", Orden: 3, Seccion: sec}
	b := true
	r := Respuesta{
		ValorBooleano: &b,
		Requisito: &Requisito{
			ID:           "r1",
			Descripcion:  "Sin fisuras",
			Orden:        1,
			Subcategoria: sub,
		},
		TipoRespuesta: &TipoRespuesta{ID: "t1", Codigo: "cumple", Nombre: "Cumple", TipoDato: checklist.KindBoolean},
	}

	row := r.Row()
	if row.Requirement == nil || row.ResponseType == nil {
		t.Fatalf("relations not converted: %+v", row)
	}
	name, order := checklist.EffectiveSection(row.Requirement)
	if name != "Estructura" || order == nil || *order != 2 {
		t.Errorf("EffectiveSection = %q, %v", name, order)
	}
	if o := row.Requirement.Subcategory.Order; o == nil || *o != 3 {
		t.Errorf("subcategory order = %v, want 3", o)
	}
	if got := checklist.ResolveRow(row); got != checklist.Bool(true) {
		t.Errorf("ResolveRow = %#v", got)
	}

	if row := (Respuesta{}).Row(); row.Requirement != nil || row.ResponseType != nil {
		t.Errorf("missing relations should stay nil: %+v", row)
	}
}

func TestChecklistPairs(t *testing.T) {
	cumple := TipoRespuesta{ID: "t1", TipoDato: checklist.KindBoolean}
	medida := TipoRespuesta{ID: "t2", TipoDato: checklist.KindNumber}
	c := Checklist{Secciones: []Seccion{{
		Requisitos: []Requisito{{ID: "r1", TiposRespuesta: []TipoRespuesta{cumple, medida}}},
		Subcategorias: []Subcategoria{{
			Requisitos: []Requisito{{ID: "r2", TiposRespuesta: []TipoRespuesta{cumple}}},
		}},
	}}}

	want := map[string]checklist.Kind{
		PairKey("r1", "t1"): checklist.KindBoolean,
		PairKey("r1", "t2"): checklist.KindNumber,
		PairKey("r2", "t1"): checklist.KindBoolean,
	}
	if diff := cmp.Diff(want, c.Pairs()); diff != "" {
		t.Errorf("Pairs() mismatch (-want +got):\n%s", diff)
	}
}

func TestDocumentoVigente(t *testing.T) {
	exp := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	d := &Documento{FechaVencimiento: &exp}

	if !d.Vigente(exp.Add(23 * time.Hour)) {
		t.Error("document should be valid through its expiry day")
	}
	if d.Vigente(exp.AddDate(0, 0, 1)) {
		t.Error("document should expire after its expiry day")
	}
	if !(&Documento{}).Vigente(exp) {
		t.Error("document without expiry is always valid")
	}
}
