package intake

// Candidate is the per-submission intake payload. It is built transiently from
// the hiring application plus operator-entered fields and passed by value into
// submit. It is never persisted: once the provider accepts the request the raw
// intake is discarded to minimize sensitive-data retention.
type Candidate struct {
	FullName            string `json:"full_name" validate:"required"`
	Email               string `json:"email" validate:"required,email"`
	Phone               string `json:"phone,omitempty" validate:"omitempty,phone"`
	DateOfBirth         string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	NationalID          string `json:"national_id" validate:"required,national_id"`
	MiddleName          string `json:"middle_name,omitempty"`
	PreviousNames       string `json:"previous_names,omitempty"`
	DriverLicenseNumber string `json:"driver_license_number,omitempty"`
	DriverLicenseState  string `json:"driver_license_state,omitempty"`
}
