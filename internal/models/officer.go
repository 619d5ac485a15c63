package models

// Officer is a senior officer record keyed by an auto generated AGID.
type Officer struct {
	Agid         string `json:"agid"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile"`
	Landline     string `json:"landline"`
	Rank         string `json:"rank"`
	Station      string `json:"station"`
	District     string `json:"district"`
	PhotoURL     string `json:"photoUrl"`
	UploadStatus string `json:"uploadStatus,omitempty"`
}

// OfficerColumns is the column order used when an officers sheet is created.
var OfficerColumns = []string{"agid", "name", "mobile", "landline", "rank", "station", "district", "email", "photoUrl", "uploadStatus"}

func OfficerFromMap(id string, m map[string]any) Officer {
	o := Officer{
		Agid:         stringValue(m, "agid"),
		Name:         stringValue(m, "name"),
		Email:        stringValue(m, "email"),
		Mobile:       stringValue(m, "mobile"),
		Landline:     stringValue(m, "landline"),
		Rank:         stringValue(m, "rank"),
		Station:      stringValue(m, "station"),
		District:     stringValue(m, "district"),
		PhotoURL:     stringValue(m, "photoUrl"),
		UploadStatus: stringValue(m, "uploadStatus"),
	}
	if o.Agid == "" {
		o.Agid = id
	}
	return o
}

// Fields is the Firestore document; the sheet-only upload status is omitted.
func (o Officer) Fields() map[string]any {
	return map[string]any{
		"agid":     o.Agid,
		"name":     o.Name,
		"email":    o.Email,
		"mobile":   o.Mobile,
		"landline": o.Landline,
		"rank":     o.Rank,
		"station":  o.Station,
		"district": o.District,
		"photoUrl": o.PhotoURL,
	}
}

// Row is the sheet representation keyed by column header.
func (o Officer) Row() map[string]any {
	row := o.Fields()
	row["uploadStatus"] = o.UploadStatus
	return row
}
