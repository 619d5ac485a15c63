package models

import "time"

// Employee is a directory record keyed by KGID. It is stored in the
// "employees" Firestore collection and as a row of the employees sheet.
type Employee struct {
	Kgid               string    `json:"kgid"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Pin                string    `json:"pin,omitempty"`
	Mobile1            string    `json:"mobile1"`
	Mobile2            string    `json:"mobile2"`
	Landline           string    `json:"landline,omitempty"`
	Landline2          string    `json:"landline2,omitempty"`
	Rank               string    `json:"rank"`
	MetalNumber        string    `json:"metalNumber"`
	District           string    `json:"district"`
	Station            string    `json:"station"`
	Unit               string    `json:"unit,omitempty"`
	BloodGroup         string    `json:"bloodGroup"`
	PhotoURL           string    `json:"photoUrl"`
	PhotoURLFromGoogle string    `json:"photoUrlFromGoogle"`
	FCMToken           string    `json:"fcmToken"`
	FirebaseUID        string    `json:"firebaseUid"`
	IsAdmin            bool      `json:"isAdmin"`
	IsApproved         bool      `json:"isApproved"`
	IsHidden           bool      `json:"isHidden,omitempty"`
	CreatedAt          time.Time `json:"createdAt,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt,omitempty"`
}

// EmployeeColumns is the column order used when an employees sheet is
// created or exported. Existing sheets keep their own order.
var EmployeeColumns = []string{
	"kgid", "name", "email", "mobile1", "mobile2", "landline", "landline2", "rank", "metalNumber",
	"district", "station", "unit", "bloodGroup", "photoUrl", "isAdmin", "isApproved", "isHidden",
}

// Row is the sheet representation. Credentials and device fields stay in Firestore.
func (e Employee) Row() map[string]any {
	row := e.Fields()
	delete(row, "pin")
	delete(row, "fcmToken")
	delete(row, "firebaseUid")
	delete(row, "photoUrlFromGoogle")
	return row
}

// EmployeeFromMap builds an Employee from a Firestore document or sheet row.
// id is used as the kgid when the record does not carry one.
func EmployeeFromMap(id string, m map[string]any) Employee {
	e := Employee{
		Kgid:               stringValue(m, "kgid"),
		Name:               stringValue(m, "name"),
		Email:              stringValue(m, "email"),
		Pin:                stringValue(m, "pin"),
		Mobile1:            stringValue(m, "mobile1"),
		Mobile2:            stringValue(m, "mobile2"),
		Landline:           stringValue(m, "landline"),
		Landline2:          stringValue(m, "landline2"),
		Rank:               stringValue(m, "rank"),
		MetalNumber:        stringValue(m, "metalNumber"),
		District:           stringValue(m, "district"),
		Station:            stringValue(m, "station"),
		Unit:               stringValue(m, "unit"),
		BloodGroup:         stringValue(m, "bloodGroup"),
		PhotoURL:           stringValue(m, "photoUrl"),
		PhotoURLFromGoogle: stringValue(m, "photoUrlFromGoogle"),
		FCMToken:           stringValue(m, "fcmToken"),
		FirebaseUID:        stringValue(m, "firebaseUid"),
		IsAdmin:            boolValue(m, "isAdmin", false),
		IsApproved:         boolValue(m, "isApproved", true),
		IsHidden:           boolValue(m, "isHidden", false),
		CreatedAt:          timeValue(m, "createdAt"),
		UpdatedAt:          timeValue(m, "updatedAt"),
	}
	if e.Kgid == "" {
		e.Kgid = id
	}
	return e
}

// Fields returns the Firestore representation. Timestamps are left to the
// caller so updates can choose between server and client time.
func (e Employee) Fields() map[string]any {
	return map[string]any{
		"kgid":               e.Kgid,
		"name":               e.Name,
		"email":              e.Email,
		"pin":                e.Pin,
		"mobile1":            e.Mobile1,
		"mobile2":            e.Mobile2,
		"landline":           e.Landline,
		"landline2":          e.Landline2,
		"rank":               e.Rank,
		"metalNumber":        e.MetalNumber,
		"district":           e.District,
		"station":            e.Station,
		"unit":               e.Unit,
		"bloodGroup":         e.BloodGroup,
		"photoUrl":           e.PhotoURL,
		"photoUrlFromGoogle": e.PhotoURLFromGoogle,
		"fcmToken":           e.FCMToken,
		"firebaseUid":        e.FirebaseUID,
		"isAdmin":            e.IsAdmin,
		"isApproved":         e.IsApproved,
		"isHidden":           e.IsHidden,
	}
}

// Public strips credentials before a record leaves the service.
func (e Employee) Public() Employee {
	e.Pin = ""
	e.FCMToken = ""
	return e
}
