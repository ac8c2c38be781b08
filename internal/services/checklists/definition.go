package checklists

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Definition is an authored checklist as it arrives from a YAML file or the
// API. Requirements name their response types by code.
type Definition struct {
	Codigo           string       `json:"codigo" yaml:"codigo"`
	Version          string       `json:"version" yaml:"version"`
	Nombre           string       `json:"nombre" yaml:"nombre"`
	Descripcion      string       `json:"descripcion,omitempty" yaml:"descripcion,omitempty"`
	Orden            int          `json:"orden,omitempty" yaml:"orden,omitempty"`
	TipoInspeccionID string       `json:"tipoInspeccionId,omitempty" yaml:"tipoInspeccionId,omitempty"`
	TiposRespuesta   []TipoDef    `json:"tiposRespuesta,omitempty" yaml:"tiposRespuesta,omitempty"`
	Secciones        []SeccionDef `json:"secciones" yaml:"secciones"`
}

type TipoDef struct {
	Codigo   string `json:"codigo" yaml:"codigo"`
	Nombre   string `json:"nombre" yaml:"nombre"`
	TipoDato string `json:"tipoDato" yaml:"tipoDato"`
	Orden    int    `json:"orden,omitempty" yaml:"orden,omitempty"`
}

type SeccionDef struct {
	Nombre        string            `json:"nombre" yaml:"nombre"`
	Orden         int               `json:"orden,omitempty" yaml:"orden,omitempty"`
	Requisitos    []RequisitoDef    `json:"requisitos,omitempty" yaml:"requisitos,omitempty"`
	Subcategorias []SubcategoriaDef `json:"subcategorias,omitempty" yaml:"subcategorias,omitempty"`
}

type SubcategoriaDef struct {
	Nombre         string         `json:"nombre" yaml:"nombre"`
	NormaAplicable string         `json:"normaAplicable,omitempty" yaml:"normaAplicable,omitempty"`
	Orden          int            `json:"orden,omitempty" yaml:"orden,omitempty"`
	Requisitos     []RequisitoDef `json:"requisitos" yaml:"requisitos"`
}

type RequisitoDef struct {
	Descripcion    string   `json:"descripcion" yaml:"descripcion"`
	NormaAplicable string   `json:"normaAplicable,omitempty" yaml:"normaAplicable,omitempty"`
	Orden          int      `json:"orden,omitempty" yaml:"orden,omitempty"`
	TiposRespuesta []string `json:"tiposRespuesta" yaml:"tiposRespuesta"`
}

// DecodeYAML reads a single checklist definition.
func DecodeYAML(r io.Reader) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return &def, nil
}
