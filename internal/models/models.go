package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	KindUser     = "user"
	KindEmployee = "employee"
)

type User struct {
	ID           string    `gorm:"type:uuid;primaryKey"      json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Roles        []string  `gorm:"serializer:json;not null"  json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Employee struct {
	ID           string    `gorm:"type:uuid;primaryKey"      json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Roles        []string  `gorm:"serializer:json;not null"  json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// RefreshToken is the persisted half of an issued refresh token. The signed
// token itself is the lookup key; ExpiresAt mirrors the token's own exp claim.
type RefreshToken struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Token       string     `gorm:"uniqueIndex;not null"     json:"token"`
	SubjectID   string     `gorm:"index;not null"           json:"subject_id"`
	SubjectKind string     `gorm:"index;not null"           json:"subject_kind"`
	ExpiresAt   time.Time  `gorm:"index;not null"           json:"expires_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Client struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string `gorm:"not null"             json:"name"`
	Company  string `gorm:"not null"             json:"company"`
	Industry string `gorm:"not null"             json:"industry"`
	Location string `gorm:"not null"             json:"location"`

	EbitdaMarginPct   float64 `json:"ebitda_margin_pct"`
	EbitMarginPct     float64 `json:"ebit_margin_pct"`
	DebtToEquity      float64 `json:"debt_to_equity"`
	InterestCoverage  float64 `json:"interest_coverage"`
	DSCR              float64 `json:"dscr"`
	CurrentRatio      float64 `json:"current_ratio"`
	QuickRatio        float64 `json:"quick_ratio"`
	RevenueUSDM       float64 `json:"revenue_usd_m"`
	RevenueCAGR3YPct  float64 `json:"revenue_cagr_3y_pct"`
	YearsInOperation  int     `gorm:"check:years_in_operation >= 0" json:"years_in_operation"`
	GovernanceScore   int     `json:"governance_score_0_100"`
	ESGControversies  int     `json:"esg_controversies_3y"`
	CountryRisk       int     `json:"country_risk_0_100"`
	FXRevenuePct      int     `json:"fx_revenue_pct"`
	CollateralCovPct  int     `json:"collateral_coverage_pct"`
	PaymentIncidents  int     `json:"payment_incidents_12m"`
	LegalDisputesOpen int     `json:"legal_disputes_open"`

	LastEvaluation *time.Time `json:"last_evaluation,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
