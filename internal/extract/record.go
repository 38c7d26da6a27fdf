package extract

// Field names used for targeted corrections of a pending record.
const (
	FieldDate     = "date"
	FieldTime     = "time"
	FieldPlace    = "place"
	FieldCategory = "category"
	FieldAmount   = "amount"
)

// Fields lists the editable fields in display order.
var Fields = []string{FieldDate, FieldTime, FieldPlace, FieldCategory, FieldAmount}

// Record is a structured transaction assembled from recognized receipt
// text or collected through manual entry. All fields are strings until
// the record is confirmed and persisted; an empty Amount means the
// total could not be determined, not zero.
type Record struct {
	Date     string `json:"date"`     // DD-MM-YYYY
	Time     string `json:"time"`     // HH:MM
	Place    string `json:"place"`    // may be empty
	Category string `json:"category"` // one of the lexicon categories, or "Other"
	Amount   string `json:"amount"`   // decimal string, or empty
}

// Field returns the named field's value.
func (r Record) Field(name string) string {
	switch name {
	case FieldDate:
		return r.Date
	case FieldTime:
		return r.Time
	case FieldPlace:
		return r.Place
	case FieldCategory:
		return r.Category
	case FieldAmount:
		return r.Amount
	}
	return ""
}

// SetField overwrites exactly the named field, leaving every other
// field untouched.
func (r *Record) SetField(name, value string) {
	switch name {
	case FieldDate:
		r.Date = value
	case FieldTime:
		r.Time = value
	case FieldPlace:
		r.Place = value
	case FieldCategory:
		r.Category = value
	case FieldAmount:
		r.Amount = value
	}
}

// IsEditableField reports whether name is one of the record's fields.
func IsEditableField(name string) bool {
	for _, f := range Fields {
		if f == name {
			return true
		}
	}
	return false
}
