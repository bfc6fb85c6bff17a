// Package portfolio holds the domain rules shared by the admin and public handlers:
// enumerations, slug and list normalisation, upload naming and the inbox transitions.
package portfolio

// ResumeCategory 简历条目分类。
type ResumeCategory string

const (
	CategoryExperience ResumeCategory = "experience"
	CategoryEducation  ResumeCategory = "education"
	CategorySkills     ResumeCategory = "skills"
	CategoryAwards     ResumeCategory = "awards"
)

// ResumeCategories 按展示顺序排列。
var ResumeCategories = []ResumeCategory{CategoryExperience, CategoryEducation, CategorySkills, CategoryAwards}

func (c ResumeCategory) Valid() bool {
	switch c {
	case CategoryExperience, CategoryEducation, CategorySkills, CategoryAwards:
		return true
	}
	return false
}

// BusinessStatus 业务上线状态。
type BusinessStatus string

const (
	BusinessPlanned    BusinessStatus = "planned"
	BusinessInProgress BusinessStatus = "in-progress"
	BusinessLive       BusinessStatus = "live"
)

func (s BusinessStatus) Valid() bool {
	switch s {
	case BusinessPlanned, BusinessInProgress, BusinessLive:
		return true
	}
	return false
}

// CertificateStatus 证书状态，注意 in_progress 使用下划线。
type CertificateStatus string

const (
	CertificateCompleted  CertificateStatus = "completed"
	CertificateInProgress CertificateStatus = "in_progress"
)

func (s CertificateStatus) Valid() bool {
	return s == CertificateCompleted || s == CertificateInProgress
}

// AutomationStatus 自动化案例是否对外展示。
type AutomationStatus string

const (
	AutomationActive   AutomationStatus = "active"
	AutomationArchived AutomationStatus = "archived"
)

func (s AutomationStatus) Valid() bool {
	return s == AutomationActive || s == AutomationArchived
}

// ComplexityLevel 自动化复杂度。
type ComplexityLevel string

const (
	ComplexityEasy     ComplexityLevel = "easy"
	ComplexityMedium   ComplexityLevel = "medium"
	ComplexityAdvanced ComplexityLevel = "advanced"
)

func (l ComplexityLevel) Valid() bool {
	switch l {
	case ComplexityEasy, ComplexityMedium, ComplexityAdvanced:
		return true
	}
	return false
}

// ProjectStatus 外包项目状态。
type ProjectStatus string

const (
	ProjectPlanned    ProjectStatus = "planned"
	ProjectInProgress ProjectStatus = "in-progress"
	ProjectCompleted  ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanned, ProjectInProgress, ProjectCompleted:
		return true
	}
	return false
}

// AssetType 外包项目附件类型。
type AssetType string

const (
	AssetDashboard  AssetType = "dashboard"
	AssetScreenshot AssetType = "screenshot"
	AssetDocument   AssetType = "document"
)

func (t AssetType) Valid() bool {
	switch t {
	case AssetDashboard, AssetScreenshot, AssetDocument:
		return true
	}
	return false
}
