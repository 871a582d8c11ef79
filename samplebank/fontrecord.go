package samplebank

import (
	"encoding/xml"
	"fmt"

	"github.com/lambertjamesd/z64audio/soundfont"
	"github.com/pkg/errors"
)

const fontRecordComment = " This file is only for extraction of vanilla data. For other purposes see assets/audio/soundfonts/ "

// FontRecord is the extraction record of a soundfont: the sample every
// instrument, drum and sound effect plays and the sample rate and base note
// it plays it with, which may differ from the sample's own.
type FontRecord struct {
	XMLName xml.Name           `xml:"Soundfont"`
	Comment string             `xml:",comment"`
	Name    string             `xml:"Name,attr"`
	Index   int                `xml:"Index,attr"`
	Samples []FontRecordSample `xml:"Sample"`
}

type FontRecordSample struct {
	Kind       string `xml:"Kind,attr"`
	Index      int    `xml:"Index,attr"`
	Region     string `xml:"Region,attr,omitempty"`
	Sample     string `xml:"Sample,attr"`
	SampleRate uint32 `xml:"SampleRate,attr"`
	BaseNote   string `xml:"BaseNote,attr"`
}

func NewFontRecord(name string, index int) *FontRecord {
	return &FontRecord{
		Comment: fontRecordComment,
		Name:    name,
		Index:   index,
	}
}

// Add records the sample rate and base note ref plays its sample with. bank
// is the finalized bank holding the sample.
func (record *FontRecord) Add(bank *Bank, ref soundfont.SampleRef) error {
	if bank.state != stateFinalized {
		return errors.Wrapf(ErrNotResolved, "sample bank %d not finalized", bank.Index)
	}

	index, sample, ok := bank.LookupSample(ref.Sample.SampleAddr)

	if !ok {
		return &ConsistencyError{
			Bank:   bank.Index,
			Offset: ref.Sample.SampleAddr,
			Field:  "sample",
			Detail: fmt.Sprintf("%s: no sample at offset", ref.Source),
		}
	}

	var choice = sample.TuningChoice(ref.Tuning)

	record.Samples = append(record.Samples, FontRecordSample{
		Kind:       ref.Use.Kind,
		Index:      ref.Use.Index,
		Region:     ref.Use.Region,
		Sample:     bank.SampleName(index),
		SampleRate: choice.Rate,
		BaseNote:   choice.Note.String(),
	})

	return nil
}

func (record *FontRecord) Marshal() ([]byte, error) {
	return marshal(record)
}
