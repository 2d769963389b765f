package models

import (
	"strings"
	"time"
)

// StudentStatus tracks where a registration sits in the review workflow.
type StudentStatus string

const (
	StudentStatusPending  StudentStatus = "pending"
	StudentStatusApproved StudentStatus = "approved"
	StudentStatusRejected StudentStatus = "rejected"
)

// Valid reports whether the status is one of the known values.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusPending, StudentStatusApproved, StudentStatusRejected:
		return true
	}
	return false
}

// Reviewable reports whether an admin may move a record into this status.
func (s StudentStatus) Reviewable() bool {
	return s == StudentStatusApproved || s == StudentStatusRejected
}

// PaymentStatus mirrors the offline payment state recorded with a registration.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Student is one submitted registration.
type Student struct {
	ID                 int64         `db:"id" json:"id"`
	FullName           string        `db:"full_name" json:"full_name"`
	DateOfBirth        Date          `db:"date_of_birth" json:"date_of_birth"`
	Gender             string        `db:"gender" json:"gender"`
	ClassApplyingFor   string        `db:"class_applying_for" json:"class_applying_for"`
	ParentGuardianName string        `db:"parent_guardian_name" json:"parent_guardian_name"`
	PhoneNumber        string        `db:"phone_number" json:"phone_number"`
	Email              string        `db:"email" json:"email"`
	Address            string        `db:"address" json:"address"`
	PreviousSchool     *string       `db:"previous_school" json:"previous_school"`
	PassportPhotoPath  *string       `db:"passport_photo_path" json:"passport_photo_path"`
	PassportPhotoURL   string        `db:"-" json:"passport_photo_url,omitempty"`
	RegistrationFee    *int64        `db:"registration_fee" json:"registration_fee"`
	PaymentStatus      PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentProvider    *string       `db:"payment_provider" json:"payment_provider"`
	PaymentPhone       *string       `db:"payment_phone" json:"payment_phone"`
	Status             StudentStatus `db:"status" json:"status"`
	ReviewedBy         *int64        `db:"reviewed_by" json:"reviewed_by"`
	ReviewedAt         *time.Time    `db:"reviewed_at" json:"reviewed_at"`
	Notes              *string       `db:"notes" json:"notes"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
}

// StudentForm carries the public registration form fields.
type StudentForm struct {
	FullName           string `form:"fullName" json:"fullName"`
	DateOfBirth        string `form:"dateOfBirth" json:"dateOfBirth"`
	Gender             string `form:"gender" json:"gender"`
	ClassApplyingFor   string `form:"classApplyingFor" json:"classApplyingFor"`
	ParentGuardianName string `form:"parentGuardianName" json:"parentGuardianName"`
	PhoneNumber        string `form:"phoneNumber" json:"phoneNumber"`
	Email              string `form:"email" json:"email"`
	Address            string `form:"address" json:"address"`
	PreviousSchool     string `form:"previousSchool" json:"previousSchool"`
	PaymentProvider    string `form:"paymentProvider" json:"paymentProvider"`
	PaymentPhone       string `form:"paymentPhone" json:"paymentPhone"`
	RegistrationFee    *int64 `form:"registrationFee" json:"registrationFee"`
}

// Values exposes the form keyed by field name for rule checks.
func (f StudentForm) Values() map[string]string {
	return map[string]string{
		"fullName":           f.FullName,
		"dateOfBirth":        f.DateOfBirth,
		"gender":             f.Gender,
		"classApplyingFor":   f.ClassApplyingFor,
		"parentGuardianName": f.ParentGuardianName,
		"phoneNumber":        f.PhoneNumber,
		"email":              f.Email,
		"address":            f.Address,
		"previousSchool":     f.PreviousSchool,
		"paymentProvider":    f.PaymentProvider,
		"paymentPhone":       f.PaymentPhone,
	}
}

// SubmitResult is returned to the registrant.
type SubmitResult struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// Listing bounds.
const (
	DefaultStudentLimit = 100
	MaxStudentLimit     = 500
)

// StudentFilter narrows registration listings.
type StudentFilter struct {
	Status StudentStatus
	Search string
	Limit  int
	Offset int
}

// Normalize applies defaults and caps to the filter.
func (f StudentFilter) Normalize() StudentFilter {
	f.Search = strings.TrimSpace(f.Search)
	if f.Limit <= 0 {
		f.Limit = DefaultStudentLimit
	}
	if f.Limit > MaxStudentLimit {
		f.Limit = MaxStudentLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ReviewRequest is the admin decision payload.
type ReviewRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// StatusCount is one row of a grouped count.
type StatusCount struct {
	Status StudentStatus `db:"status"`
	Count  int64         `db:"count"`
}

// StudentStats summarises registrations by status.
type StudentStats struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}

// NewStudentStats zero-fills counts for every status.
func NewStudentStats(counts []StatusCount) StudentStats {
	var stats StudentStats
	for _, c := range counts {
		switch c.Status {
		case StudentStatusPending:
			stats.Pending += c.Count
		case StudentStatusApproved:
			stats.Approved += c.Count
		case StudentStatusRejected:
			stats.Rejected += c.Count
		}
		stats.Total += c.Count
	}
	return stats
}
