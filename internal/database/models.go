package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SiteSettingsID 是站点配置单例行的固定主键。
const SiteSettingsID = "site"

// Model 替代 gorm.Model：主键为服务端生成的 UUID 字符串，不做软删除。
type Model struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id when the caller did not.
func (m *Model) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// User 表示可登录的账号。
type User struct {
	Model
	Email              string `gorm:"uniqueIndex;size:255"`
	PasswordHash       string `gorm:"size:255"`
	MustChangePassword bool   `gorm:"default:false"`
}

// Admin 标记拥有后台权限的账号，按 user_id 关联。
type Admin struct {
	Model
	UserID   string `gorm:"uniqueIndex;size:36"`
	User     User   `gorm:"constraint:OnDelete:CASCADE"`
	FullName string `gorm:"size:255"`
	Role     string `gorm:"size:32"`
}

// SiteSettings 是全站唯一的配置行（ID 固定为 SiteSettingsID）。
type SiteSettings struct {
	Model
	HeroTitle     string `gorm:"size:255" json:"hero_title"`
	HeroSubtitle  string `gorm:"size:512" json:"hero_subtitle"`
	AboutMe       string `gorm:"type:text" json:"about_me"`
	Mission       string `gorm:"type:text" json:"mission"`
	Vision        string `gorm:"type:text" json:"vision"`
	PrimaryEmail  string `gorm:"size:255" json:"primary_email"`
	Location      string `gorm:"size:255" json:"location"`
	LinkedinURL   string `gorm:"size:512" json:"linkedin_url"`
	GithubURL     string `gorm:"size:512" json:"github_url"`
	TwitterURL    string `gorm:"size:512" json:"twitter_url"`
	InstagramURL  string `gorm:"size:512" json:"instagram_url"`
	LogoPath      string `gorm:"size:512" json:"logo_path"`
	SmallLogoPath string `gorm:"size:512" json:"small_logo_path"`
}

// ResumeItem 是简历中的一条经历 / 教育 / 技能 / 奖项。
type ResumeItem struct {
	Model
	Category    string  `gorm:"size:32;index" json:"category"`
	Title       string  `gorm:"size:255" json:"title"`
	Subtitle    string  `gorm:"size:255" json:"subtitle"`
	Location    string  `gorm:"size:255" json:"location"`
	StartDate   *string `gorm:"size:10" json:"start_date"`
	EndDate     *string `gorm:"size:10" json:"end_date"`
	IsCurrent   bool    `json:"is_current"`
	Description string  `gorm:"type:text" json:"description"`
	OrderIndex  int     `gorm:"default:0" json:"order_index"`
}

// ResumePDFFile 是上传的简历 PDF，同一时刻至多一条 IsActive。
type ResumePDFFile struct {
	Model
	FilePath    string  `gorm:"size:512" json:"file_path"`
	DisplayName *string `gorm:"size:255" json:"display_name"`
	IsActive    bool    `gorm:"index" json:"is_active"`
}

// Business 是展示的自营业务。
type Business struct {
	Model
	Name             string                      `gorm:"size:255" json:"name"`
	Slug             string                      `gorm:"uniqueIndex;size:255" json:"slug"`
	ShortDescription string                      `gorm:"size:512" json:"short_description"`
	LongDescription  string                      `gorm:"type:text" json:"long_description"`
	WebsiteURL       string                      `gorm:"size:512" json:"website_url"`
	Status           string                      `gorm:"size:32" json:"status"`
	MainModules      datatypes.JSONSlice[string] `json:"main_modules"`
	OrderIndex       int                         `gorm:"default:0" json:"order_index"`
	Screenshots      []BusinessScreenshot        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// BusinessScreenshot 属于某个 Business 的截图。
type BusinessScreenshot struct {
	Model
	BusinessID  string `gorm:"index;size:36" json:"business_id"`
	Title       string `gorm:"size:255" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	ImagePath   string `gorm:"size:512" json:"image_path"`
	IsMain      bool   `json:"is_main"`
	OrderIndex  int    `gorm:"default:0" json:"order_index"`
}

// Certificate 是证书 / 资质，可附带图片或 PDF。
type Certificate struct {
	Model
	Title         string  `gorm:"size:255" json:"title"`
	Issuer        string  `gorm:"size:255;index" json:"issuer"`
	IssueDate     string  `gorm:"size:10" json:"issue_date"`
	ExpiryDate    *string `gorm:"size:10" json:"expiry_date"`
	CredentialID  string  `gorm:"size:255" json:"credential_id"`
	CredentialURL string  `gorm:"size:512" json:"credential_url"`
	Category      string  `gorm:"size:128" json:"category"`
	FilePath      string  `gorm:"size:512" json:"file_path"`
	Status        string  `gorm:"size:32" json:"status"`
	OrderIndex    int     `gorm:"default:0" json:"order_index"`
}

// AIAutomation 是自动化案例展示。
type AIAutomation struct {
	Model
	Title               string                      `gorm:"size:255" json:"title"`
	Platform            string                      `gorm:"size:128" json:"platform"`
	ShortDescription    string                      `gorm:"size:512" json:"short_description"`
	DetailedDescription string                      `gorm:"type:text" json:"detailed_description"`
	BusinessContext     string                      `gorm:"type:text" json:"business_context"`
	Tags                datatypes.JSONSlice[string] `json:"tags"`
	ToolsUsed           datatypes.JSONSlice[string] `json:"tools_used"`
	ComplexityLevel     string                      `gorm:"size:32" json:"complexity_level"`
	TimeSaved           string                      `gorm:"size:255" json:"time_saved"`
	ROIDescription      string                      `gorm:"type:text;column:roi_description" json:"roi_description"`
	ScreenshotPath      string                      `gorm:"size:512" json:"screenshot_path"`
	Status              string                      `gorm:"size:32;index" json:"status"`
	Featured            bool                        `json:"featured"`
	OrderIndex          int                         `gorm:"default:0" json:"order_index"`
}

// TableName keeps the table name readable (default would be a_i_automations).
func (AIAutomation) TableName() string { return "ai_automations" }

// FreelanceProject 是外包项目。
type FreelanceProject struct {
	Model
	ClientName          string                      `gorm:"size:255" json:"client_name"`
	ProjectTitle        string                      `gorm:"size:255" json:"project_title"`
	Status              string                      `gorm:"size:32" json:"status"`
	ProjectType         string                      `gorm:"size:128" json:"project_type"`
	Industry            string                      `gorm:"size:128" json:"industry"`
	ShortDescription    string                      `gorm:"size:512" json:"short_description"`
	DetailedDescription string                      `gorm:"type:text" json:"detailed_description"`
	StartDate           *string                     `gorm:"size:10" json:"start_date"`
	EndDate             *string                     `gorm:"size:10" json:"end_date"`
	Tags                datatypes.JSONSlice[string] `json:"tags"`
	Assets              []FreelanceAsset            `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

// FreelanceAsset 是项目附件（看板截图、文档等）。
type FreelanceAsset struct {
	Model
	ProjectID   string `gorm:"index;size:36" json:"project_id"`
	AssetType   string `gorm:"size:32" json:"asset_type"`
	Title       string `gorm:"size:255" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	FilePath    string `gorm:"size:512" json:"file_path"`
	OrderIndex  int    `gorm:"default:0" json:"order_index"`
}

// ContactMessage 是联系表单提交的留言。
type ContactMessage struct {
	Model
	Name    string `gorm:"size:255" json:"name"`
	Email   string `gorm:"size:255" json:"email"`
	Subject string `gorm:"size:255" json:"subject"`
	Message string `gorm:"type:text" json:"message"`
	Status  string `gorm:"size:32;index" json:"status"`
}
