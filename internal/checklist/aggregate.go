package checklist

import (
	"cmp"
	"slices"
)

// UnknownSection names the group of requirements whose section cannot be resolved.
const UnknownSection = "Sin sección"

// SectionRef is the part of a checklist section an answer row carries.
type SectionRef struct {
	Name  string
	Order *int
}

// SubcategoryRef is a subcategory together with its owning section.
type SubcategoryRef struct {
	Name    string
	Order   *int
	Section *SectionRef
}

// RequirementRef is a requirement attached either directly to a section or
// to a subcategory of a section.
type RequirementRef struct {
	ID          string
	Description string
	Order       *int
	Section     *SectionRef
	Subcategory *SubcategoryRef
}

// ResponseTypeRef describes how an answer was captured.
type ResponseTypeRef struct {
	ID    string
	Code  string
	Label string
	Kind  Kind
	Order *int
}

// AnswerRow is one stored answer joined with its requirement and response type.
type AnswerRow struct {
	Requirement  *RequirementRef
	ResponseType *ResponseTypeRef
	Slots        Slots
}

// Response is a labelled, resolved answer of a requirement.
type Response struct {
	Label string `json:"tipo"`
	Kind  Kind   `json:"-"`
	Value Value  `json:"valor"`

	order *int
}

// RequirementGroup holds every answer given to one requirement.
type RequirementGroup struct {
	ID          string     `json:"-"`
	Description string     `json:"descripcion"`
	Responses   []Response `json:"respuestas"`

	// position within the section: direct requirements (subcategory 0)
	// come before subcategories, each list by its own order
	subOrder *int
	order    *int
}

// SectionGroup holds the answered requirements of one effective section.
type SectionGroup struct {
	Name         string             `json:"nombre"`
	Requirements []RequirementGroup `json:"requisitos"`

	order *int
}

// EffectiveSection resolves the section a requirement is displayed under:
// the section of its subcategory, else its direct section, else UnknownSection.
func EffectiveSection(req *RequirementRef) (string, *int) {
	if req == nil {
		return UnknownSection, nil
	}
	if req.Subcategory != nil && req.Subcategory.Section != nil && req.Subcategory.Section.Name != "" {
		return req.Subcategory.Section.Name, req.Subcategory.Section.Order
	}
	if req.Section != nil && req.Section.Name != "" {
		return req.Section.Name, req.Section.Order
	}
	return UnknownSection, nil
}

// Aggregate groups answer rows into sections and requirements, keeping the
// order in which they first appear. Rows without a requirement are skipped.
// A level is re-sorted by its persisted order only when every entry of that
// level carries one.
func Aggregate(rows []AnswerRow) []SectionGroup {
	sections := make([]SectionGroup, 0)
	sectionIdx := make(map[string]int)
	reqIdx := make(map[string]map[string]int)

	for _, row := range rows {
		if row.Requirement == nil {
			continue
		}

		name, sectionOrder := EffectiveSection(row.Requirement)
		si, ok := sectionIdx[name]
		if !ok {
			si = len(sections)
			sectionIdx[name] = si
			reqIdx[name] = make(map[string]int)
			sections = append(sections, SectionGroup{Name: name, Requirements: []RequirementGroup{}, order: sectionOrder})
		}

		section := &sections[si]
		ri, ok := reqIdx[name][row.Requirement.ID]
		if !ok {
			ri = len(section.Requirements)
			reqIdx[name][row.Requirement.ID] = ri
			section.Requirements = append(section.Requirements, RequirementGroup{
				ID:          row.Requirement.ID,
				Description: row.Requirement.Description,
				Responses:   []Response{},
				subOrder:    subcategoryOrder(row.Requirement),
				order:       row.Requirement.Order,
			})
		}

		resp := Response{Value: ResolveRow(row)}
		if rt := row.ResponseType; rt != nil {
			resp.Label = rt.Label
			if resp.Label == "" {
				resp.Label = rt.Code
			}
			resp.Kind = rt.Kind
			resp.order = rt.Order
		}
		section.Requirements[ri].Responses = append(section.Requirements[ri].Responses, resp)
	}

	sortByOrder(sections, func(s SectionGroup) *int { return s.order })
	for i := range sections {
		reqs := sections[i].Requirements
		sortRequirements(reqs)
		for j := range reqs {
			sortByOrder(reqs[j].Responses, func(r Response) *int { return r.order })
		}
	}
	return sections
}

// Result applies the outcome rule to the answers of a single section.
func (s SectionGroup) Result() Result {
	for _, req := range s.Requirements {
		for _, resp := range req.Responses {
			if resp.Kind != KindBoolean {
				continue
			}
			if b, ok := resp.Value.(Bool); ok && !bool(b) {
				return Rejected
			}
		}
	}
	return Approved
}

func sortByOrder[T any](items []T, order func(T) *int) {
	for _, it := range items {
		if order(it) == nil {
			return
		}
	}
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(*order(a), *order(b))
	})
}

// subcategoryOrder is 0 for a requirement attached directly to its section
// and the subcategory's order otherwise. Nil when that order is unknown.
func subcategoryOrder(req *RequirementRef) *int {
	if req.Subcategory == nil {
		zero := 0
		return &zero
	}
	return req.Subcategory.Order
}

// sortRequirements orders a section's requirements by (subcategory,
// requirement) when both keys are known for every entry.
func sortRequirements(reqs []RequirementGroup) {
	for _, r := range reqs {
		if r.subOrder == nil || r.order == nil {
			return
		}
	}
	slices.SortStableFunc(reqs, func(a, b RequirementGroup) int {
		if c := cmp.Compare(*a.subOrder, *b.subOrder); c != 0 {
			return c
		}
		return cmp.Compare(*a.order, *b.order)
	})
}
