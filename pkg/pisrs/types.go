// Package pisrs provides a connector to PISRS, the Slovenian legal
// information system, for retrieving a law's register entry, its
// consolidated-text (NPB) versions and their HTML content.
package pisrs

import (
	"bytes"
	"encoding/json"

	"github.com/coolbeans/lawgit/pkg/types"
)

// LawMetadata identifies a base law as recorded in the PISRS register.
type LawMetadata struct {
	MopedID             string           `json:"moped_id"`
	ShortCode           string           `json:"short_code"`
	Title               string           `json:"title"`
	AdoptionDate        types.Date       `json:"adoption_date"`
	PublicationDate     types.Date       `json:"publication_date"`
	EPA                 string           `json:"epa,omitempty"`
	SOP                 string           `json:"sop,omitempty"`
	EVA                 string           `json:"eva,omitempty"`
	Citation            string           `json:"citation,omitempty"`
	ResponsibleMinistry string           `json:"responsible_ministry,omitempty"`
	AdoptingBody        string           `json:"adopting_body,omitempty"`
	Amendments          []AmendmentEvent `json:"amendments,omitempty"`
}

// LawVersion is one consolidated-text snapshot of a law.
type LawVersion struct {
	// VersionID is the NPB identifier used to fetch content.
	VersionID string `json:"version_id"`

	// SequenceNumber is the 1-based chronological position; 1 is the
	// original enactment.
	SequenceNumber int `json:"sequence_number"`

	// AdoptionDate is the date the version became authoritative.
	AdoptionDate types.Date `json:"adoption_date"`

	Title string `json:"title"`

	// AmendmentName is the derived short code, empty until assigned.
	AmendmentName string `json:"amendment_name,omitempty"`

	ResponsibleMinistry string `json:"responsible_ministry,omitempty"`
	AdoptingBody        string `json:"adopting_body,omitempty"`

	// DocumentNumber is the NPB document number (stevilkaDokumenta).
	DocumentNumber string `json:"document_number,omitempty"`
}

// AmendmentEvent is a recorded act modifying the base law. Its Name is the
// full legislative title, which conventionally ends in the amendment's short
// code in parentheses, e.g. "Zakon o spremembah ... (ZDoh-2A)".
type AmendmentEvent struct {
	Name    string     `json:"name"`
	MopedID string     `json:"moped_id,omitempty"`
	Date    types.Date `json:"date"`
}

// registerResponse is the envelope of /predpis/register-predpisov.
type registerResponse struct {
	Data []registerEntry `json:"data"`
}

type namedOrgan struct {
	Naziv string `json:"naziv"`
}

type registerEntry struct {
	ID                         int64            `json:"id"`
	MopedID                    string           `json:"mopedId"`
	Kratica                    string           `json:"kratica"`
	Naziv                      string           `json:"naziv"`
	DatumSprejetja             string           `json:"datumSprejetja"`
	DatumObjave                string           `json:"datumObjave"`
	Osnovni                    bool             `json:"osnovni"`
	EPA                        string           `json:"epa"`
	SOP                        string           `json:"sop"`
	EVA                        string           `json:"eva"`
	Citat                      string           `json:"citat"`
	OrganOdgovorenZaPripravo   organList        `json:"organOdgovorenZaPripravo"`
	OrganKiJeSprejelOzIzdalAkt *namedOrgan      `json:"organKiJeSprejelOzIzdalAkt"`
	PosegiVPredpis             []amendmentEntry `json:"posegiVPredpis"`
}

// organList decodes a field that PISRS returns either as a single organ
// object or as a list of them.
type organList []namedOrgan

func (organs *organList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*organs = nil
		return nil
	}
	if trimmed[0] == '{' {
		var single namedOrgan
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*organs = organList{single}
		return nil
	}
	var many []namedOrgan
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*organs = many
	return nil
}

// first returns the name of the first organ, or "".
func (organs organList) first() string {
	if len(organs) == 0 {
		return ""
	}
	return organs[0].Naziv
}

type amendmentEntry struct {
	MopedID        string `json:"mopedID"`
	Naziv          string `json:"naziv"`
	DatumSprejetja string `json:"datumSprejetja"`
}

// npbResponse is the envelope of /npb.
type npbResponse struct {
	Data []npbEntry `json:"data"`
}

type npbEntry struct {
	ID                int64  `json:"id"`
	Naziv             string `json:"naziv"`
	DatumDokumenta    string `json:"datumDokumenta"`
	StevilkaDokumenta string `json:"stevilkaDokumenta"`
}
