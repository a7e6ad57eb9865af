package registration

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

const (
	MaxFileSize = 5 * 1024 * 1024
	MinFileSize = 1024

	strictEpicLength  = 10
	demoEpicMinLength = 3
)

var allowedFileTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"application/pdf",
}

// BloodGroups are the groups the backend knows about, the form field itself
// accepts free text.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// DefaultBloodGroup is sent in place of an empty blood group when seeding.
const DefaultBloodGroup = "Not specified"

var (
	epicPattern     = regexp.MustCompile(`^[A-Z0-9]{10}$`)
	nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)
	contactPattern  = regexp.MustCompile(`^\d{10}$`)
)

// NormalizeEpic strips everything outside [A-Za-z0-9], uppercases the rest
// and truncates it to maxLength (0 keeps the whole value).
func NormalizeEpic(raw string, maxLength int) string {
	value := strings.ToUpper(nonAlphanumeric.ReplaceAllString(raw, ""))
	if maxLength > 0 && len(value) > maxLength {
		value = value[:maxLength]
	}
	return value
}

// ValidateFile checks type and size of an upload, failures are reported
// against `region`.
func ValidateFile(file File, region Region) error {
	if err := validateFile(file, region); err != nil {
		return err
	}
	return nil
}

func validateFile(file File, region Region) *ValidationError {
	if !slices.Contains(allowedFileTypes, strings.ToLower(file.Type)) {
		return invalid(region, "Invalid file type. Please upload JPG, PNG, or PDF files only.")
	}
	if file.Size > MaxFileSize {
		return invalid(region, fmt.Sprintf(
			"File too large. Maximum size is %dMB. Your file is %.2fMB.",
			MaxFileSize/(1024*1024),
			float64(file.Size)/(1024*1024),
		))
	}
	if file.Size < MinFileSize {
		return invalid(region, "File too small. Please upload a valid document file.")
	}
	return nil
}

// ValidatePhoto is ValidateFile for the member photo, which must be an image.
func ValidatePhoto(file File) error {
	if err := validatePhoto(file); err != nil {
		return err
	}
	return nil
}

func validatePhoto(file File) *ValidationError {
	if !file.IsImage() {
		return invalid(RegionPhoto, "Please upload a valid image file (JPG, PNG)")
	}
	return validateFile(file, RegionPhoto)
}

func IsKnownBloodGroup(value string) bool {
	return slices.Contains(BloodGroups, strings.ToUpper(strings.TrimSpace(value)))
}

// MemberDetails are the values of the member form.
type MemberDetails struct {
	FullName    string
	Profession  string
	Designation string
	Mandal      string
	Dob         string
	BloodGroup  string
	Contact     string
	Address     string
}

// Form returns the details keyed by the form's input names.
func (d MemberDetails) Form() map[string]string {
	return map[string]string{
		"fullName":    d.FullName,
		"profession":  d.Profession,
		"designation": d.Designation,
		"mandal":      d.Mandal,
		"dob":         d.Dob,
		"bloodGroup":  d.BloodGroup,
		"contact":     d.Contact,
		"address":     d.Address,
	}
}

// MemberDetailsFromForm is the inverse of MemberDetails.Form, unknown keys
// are ignored.
func MemberDetailsFromForm(form map[string]string) MemberDetails {
	return MemberDetails{
		FullName:    form["fullName"],
		Profession:  form["profession"],
		Designation: form["designation"],
		Mandal:      form["mandal"],
		Dob:         form["dob"],
		BloodGroup:  form["bloodGroup"],
		Contact:     form["contact"],
		Address:     form["address"],
	}
}

var requiredFields = []string{"fullName", "profession", "mandal", "dob", "contact", "address"}

// fullName -> full name
func humanizeField(name string) string {
	var out strings.Builder
	for _, r := range name {
		if unicode.IsUpper(r) {
			out.WriteRune(' ')
			out.WriteRune(unicode.ToLower(r))
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// Missing returns the form names of the required fields that are still
// empty, in form order.
func (d MemberDetails) Missing() []string {
	form := d.Form()
	var missing []string
	for _, field := range requiredFields {
		if strings.TrimSpace(form[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// FieldLabel is the human readable name of a form field.
func FieldLabel(name string) string {
	return humanizeField(name)
}

// Validate checks required fields in form order and then the contact number,
// only the first problem is reported.
func (d MemberDetails) Validate() error {
	if err := d.validate(); err != nil {
		return err
	}
	return nil
}

func (d MemberDetails) validate() *ValidationError {
	form := d.Form()
	for _, field := range requiredFields {
		if strings.TrimSpace(form[field]) == "" {
			return invalid(RegionMember, fmt.Sprintf("Please fill in the %s field", humanizeField(field)))
		}
	}
	if !contactPattern.MatchString(d.Contact) {
		return invalid(RegionMember, "Please enter a valid 10-digit contact number")
	}
	return nil
}

var backendFieldNames = map[string]string{
	"fullName":   "name",
	"bloodGroup": "blood_group",
	"contact":    "contact_no",
}

// RemapFields renames form keys to what the backend expects, empty values
// are dropped.
func RemapFields(form map[string]string) map[string]string {
	out := make(map[string]string, len(form))
	for key, value := range form {
		if value == "" {
			continue
		}
		name, renamed := backendFieldNames[key]
		if !renamed {
			name = key
		}
		out[name] = value
	}
	return out
}
