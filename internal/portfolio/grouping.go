package portfolio

import (
	"sort"
	"strings"

	"portfolio/internal/database"
)

// IssuerGroup 是公开证书页的一个分组。
type IssuerGroup struct {
	Issuer       string                 `json:"issuer"`
	Certificates []database.Certificate `json:"certificates"`
}

// GroupCertificatesByIssuer buckets certificates by issuer ("Other" when blank) and sorts the
// groups alphabetically. Certificates keep their input order inside a group.
func GroupCertificatesByIssuer(certs []database.Certificate) []IssuerGroup {
	index := make(map[string]int)
	groups := make([]IssuerGroup, 0)
	for _, cert := range certs {
		issuer := strings.TrimSpace(cert.Issuer)
		if issuer == "" {
			issuer = "Other"
		}
		i, ok := index[issuer]
		if !ok {
			i = len(groups)
			index[issuer] = i
			groups = append(groups, IssuerGroup{Issuer: issuer})
		}
		groups[i].Certificates = append(groups[i].Certificates, cert)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Issuer < groups[b].Issuer
	})
	return groups
}

// ResumeSection 是公开简历页按分类聚合后的条目。
type ResumeSection struct {
	Category ResumeCategory        `json:"category"`
	Items    []database.ResumeItem `json:"items"`
}

// GroupResumeItems returns one section per known category, each sorted by order_index.
// Categories without items are still present with an empty list.
func GroupResumeItems(items []database.ResumeItem) []ResumeSection {
	sections := make([]ResumeSection, 0, len(ResumeCategories))
	for _, category := range ResumeCategories {
		bucket := make([]database.ResumeItem, 0)
		for _, item := range items {
			if ResumeCategory(item.Category) == category {
				bucket = append(bucket, item)
			}
		}
		sort.SliceStable(bucket, func(a, b int) bool {
			return bucket[a].OrderIndex < bucket[b].OrderIndex
		})
		sections = append(sections, ResumeSection{Category: category, Items: bucket})
	}
	return sections
}
