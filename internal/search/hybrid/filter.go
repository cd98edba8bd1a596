package hybrid

func matchesFilters(view ResourceView, f Filters) bool {
	if f.ClassificationCode != "" && view.ClassificationCode != f.ClassificationCode {
		return false
	}
	if f.Language != "" && view.Language != f.Language {
		return false
	}
	if f.Type != "" && view.Type != f.Type {
		return false
	}
	if f.ReadStatus != "" && view.ReadStatus != f.ReadStatus {
		return false
	}
	if f.MinQuality != nil && view.Quality < *f.MinQuality {
		return false
	}
	if f.CreatedFrom != nil && view.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && view.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.UpdatedFrom != nil && view.UpdatedAt.Before(*f.UpdatedFrom) {
		return false
	}
	if f.UpdatedTo != nil && view.UpdatedAt.After(*f.UpdatedTo) {
		return false
	}
	if len(f.SubjectAny) > 0 && !hasAny(view.Subjects, f.SubjectAny) {
		return false
	}
	if len(f.SubjectAll) > 0 && !hasAll(view.Subjects, f.SubjectAll) {
		return false
	}
	return true
}

func hasAny(subjects, want []string) bool {
	set := toSet(subjects)
	for _, w := range want {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

func hasAll(subjects, want []string) bool {
	set := toSet(subjects)
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, i := range items {
		set[i] = struct{}{}
	}
	return set
}

const maxSubjectFacetPool = 1000

// computeFacets builds facet counts over filteredSorted, plus the subject
// facet from the (pre-filter) fused top-N pool, per spec §4.6.
func computeFacets(filteredSorted []ResourceView, fusedPool []ResourceView) Facets {
	facets := Facets{
		ClassificationCode: map[string]int{},
		Type:                map[string]int{},
		Language:            map[string]int{},
		ReadStatus:          map[string]int{},
		Subject:             map[string]int{},
	}
	for _, v := range filteredSorted {
		if v.ClassificationCode != "" {
			facets.ClassificationCode[v.ClassificationCode]++
		}
		if v.Type != "" {
			facets.Type[v.Type]++
		}
		if v.Language != "" {
			facets.Language[v.Language]++
		}
		if v.ReadStatus != "" {
			facets.ReadStatus[v.ReadStatus]++
		}
	}

	n := len(fusedPool)
	if n > maxSubjectFacetPool {
		n = maxSubjectFacetPool
	}
	for _, v := range fusedPool[:n] {
		for _, s := range v.Subjects {
			facets.Subject[s]++
		}
	}
	return facets
}
