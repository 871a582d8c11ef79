package samplebank

import (
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/lambertjamesd/z64audio/tuning"
	"github.com/pkg/errors"
)

const recordComment = " This file is only for extraction of vanilla data. For other purposes see assets/audio/samplebanks/ "

type manifestBank struct {
	XMLName     xml.Name `xml:"SampleBank"`
	Name        string   `xml:"Name,attr"`
	Index       int      `xml:"Index,attr"`
	Medium      string   `xml:"Medium,attr"`
	CachePolicy string   `xml:"CachePolicy,attr"`
	BufferBug   string   `xml:"BufferBug,attr,omitempty"`
	Items       []interface{}
}

type manifestPointer struct {
	XMLName xml.Name `xml:"Pointer"`
	Index   int      `xml:"Index,attr"`
}

type manifestSample struct {
	XMLName xml.Name `xml:"Sample"`
	Name    string   `xml:"Name,attr"`
	Path    string   `xml:"Path,attr"`
}

type manifestBlob struct {
	XMLName xml.Name `xml:"Blob"`
	Name    string   `xml:"Name,attr"`
	Path    string   `xml:"Path,attr"`
}

// Manifest describes the finalized bank for the build: aliases, then every
// sample and blob in offset order. basePath is the directory the sample
// files are extracted to.
func (bank *Bank) Manifest(basePath string) ([]byte, error) {
	entries, err := bank.Entries()

	if err != nil {
		return nil, err
	}

	var result = manifestBank{
		Name:        bank.Name(),
		Index:       bank.Index,
		Medium:      bank.Entry.Medium.String(),
		CachePolicy: bank.Entry.CachePolicy.String(),
	}

	if bank.BufferBug {
		result.BufferBug = "true"
	}

	for _, index := range bank.Pointers {
		result.Items = append(result.Items, manifestPointer{Index: index})
	}

	var sampleIndex = 0

	for _, entry := range entries {
		switch entry := entry.(type) {
		case *ResolvedSample:
			result.Items = append(result.Items, manifestSample{
				Name: bank.SampleName(sampleIndex),
				Path: path.Join("build", basePath, SampleFileName(sampleIndex)+entry.Extension()+".aifc"),
			})
			sampleIndex++
		case *Blob:
			result.Items = append(result.Items, manifestBlob{
				Name: entry.Name(),
				Path: path.Join(basePath, entry.Name()+".bin"),
			})
		}
	}

	return marshal(result)
}

func marshal(value interface{}) ([]byte, error) {
	data, err := xml.MarshalIndent(value, "", "    ")

	if err != nil {
		return nil, errors.Wrap(err, "could not encode xml")
	}

	return append([]byte(xml.Header), append(data, '\n')...), nil
}

// Record is the extraction record of a bank, enough to find every sample
// again with its sample rate and base note without resolving tunings.
type Record struct {
	XMLName xml.Name       `xml:"SampleBank"`
	Comment string         `xml:",comment"`
	Name    string         `xml:"Name,attr"`
	Index   int            `xml:"Index,attr"`
	Samples []RecordSample `xml:"Sample"`
	Blobs   []RecordBlob   `xml:"Blob"`
}

type RecordSample struct {
	Name       string `xml:"Name,attr"`
	Offset     string `xml:"Offset,attr"`
	Size       string `xml:"Size,attr"`
	SampleRate uint32 `xml:"SampleRate,attr"`
	BaseNote   string `xml:"BaseNote,attr"`
}

type RecordBlob struct {
	Name   string `xml:"Name,attr"`
	Offset string `xml:"Offset,attr"`
	Size   string `xml:"Size,attr"`
}

func (bank *Bank) Record() (*Record, error) {
	entries, err := bank.Entries()

	if err != nil {
		return nil, err
	}

	var result = Record{
		Comment: recordComment,
		Name:    bank.Name(),
		Index:   bank.Index,
	}

	var sampleIndex = 0

	for _, entry := range entries {
		switch entry := entry.(type) {
		case *ResolvedSample:
			result.Samples = append(result.Samples, RecordSample{
				Name:       bank.SampleName(sampleIndex),
				Offset:     fmt.Sprintf("0x%06X", entry.Start),
				Size:       fmt.Sprintf("0x%04X", entry.End-entry.Start),
				SampleRate: entry.SampleRate,
				BaseNote:   entry.BaseNote.String(),
			})
			sampleIndex++
		case *Blob:
			result.Blobs = append(result.Blobs, RecordBlob{
				Name:   entry.Name(),
				Offset: fmt.Sprintf("0x%06X", entry.Start),
				Size:   fmt.Sprintf("0x%X", entry.End-entry.Start),
			})
		}
	}

	return &result, nil
}

func (record *Record) Marshal() ([]byte, error) {
	return marshal(record)
}

func ReadRecord(reader io.Reader) (*Record, error) {
	var result Record

	err := xml.NewDecoder(reader).Decode(&result)

	if err != nil {
		return nil, errors.Wrap(err, "could not decode extraction record")
	}

	return &result, nil
}

func parseHex(value string) (uint32, error) {
	result, err := strconv.ParseUint(value, 0, 32)

	if err != nil {
		return 0, errors.Wrapf(err, "bad number %q", value)
	}

	return uint32(result), nil
}

func (record *Record) overrides() (map[uint32]override, error) {
	var result = make(map[uint32]override)

	for _, sample := range record.Samples {
		offset, err := parseHex(sample.Offset)

		if err != nil {
			return nil, errors.Wrap(err, sample.Name)
		}

		size, err := parseHex(sample.Size)

		if err != nil {
			return nil, errors.Wrap(err, sample.Name)
		}

		note, err := tuning.ParseNote(sample.BaseNote)

		if err != nil {
			return nil, errors.Wrap(err, sample.Name)
		}

		if sample.SampleRate < tuning.MIN_RATE || sample.SampleRate > tuning.MAX_RATE {
			return nil, errors.Errorf("%s: sample rate %d out of range", sample.Name, sample.SampleRate)
		}

		result[offset] = override{size, sample.SampleRate, note}
	}

	return result, nil
}
