package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"io"
	"math"
	"strconv"
)

// CV terms used when reading and writing spectra
const (
	cvMSLevel          = `MS:1000511`
	cvCentroidSpectrum = `MS:1000127`
	cvProfileSpectrum  = `MS:1000128`
	cvMS1Spectrum      = `MS:1000579`
	cvTotalIonCurrent  = `MS:1000285`
	cvZlibCompression  = `MS:1000574`
	cvMzArray          = `MS:1000514`
	cvIntensityArray   = `MS:1000515`
	cv64BitFloat       = `MS:1000523`
)

const defaultCvList = `
  <cv id="MS" fullName="Proteomics Standards Initiative Mass Spectrometry Ontology" URI="https://raw.githubusercontent.com/HUPO-PSI/psi-ms-CV/master/psi-ms.obo"/>
  <cv id="UO" fullName="Unit Ontology" URI="http://ontologies.berkeleybop.org/uo.obo"/>
 `

const defaultFileDescription = `
  <fileContent>
   <cvParam cvRef="MS" accession="MS:1000579" name="MS1 spectrum"/>
  </fileContent>
 `

// New creates an mzML document without spectra
func New(runID string) MzML {
	var f MzML
	f.content.XMLName = xml.Name{Space: namespace, Local: "mzML"}
	f.content.CvList = cvList{Count: 2, CvListXML: []byte(defaultCvList)}
	f.content.FileDescription.FileDescriptionXML = defaultFileDescription
	f.content.SoftwareList = &softwareList{}
	f.content.InstrumentConfigurationList = &instrumentConfigurationList{}
	f.content.DataProcessingList = &dataProcessingList{}
	f.content.Run.ID = runID
	f.index2id = []string{}
	f.id2Index = map[string]int{}
	return f
}

// Write writes the mzML document. The output has no index.
func (f *MzML) Write(writer io.Writer) error {
	if _, err := io.WriteString(writer, `<?xml version="1.0" encoding="utf-8"?>
`); err != nil {
		return err
	}
	enc := xml.NewEncoder(writer)
	enc.Indent(` `, `  `)
	var content mzMLContentWrite

	content.XMLName = f.content.XMLName
	content.Sl1 = "http://psi.hupo.org/ms/mzml http://psidev.info/files/ms/mzML/xsd/mzML1.1.0.xsd"
	content.Version = "1.1.0"
	content.Sl2 = "http://www.w3.org/2001/XMLSchema-instance"
	content.CvList = f.content.CvList
	content.FileDescription = f.content.FileDescription
	content.SoftwareList = f.content.SoftwareList
	content.InstrumentConfigurationList = f.content.InstrumentConfigurationList
	content.DataProcessingList = f.content.DataProcessingList
	content.Run = f.content.Run

	if err := enc.Encode(&content); err != nil {
		return err
	}
	_, err := io.WriteString(writer, "\n")
	return err
}

// AppendSoftwareInfo adds info to the SoftwareList tag of the mzML file
func (f *MzML) AppendSoftwareInfo(id string, version string) {
	var sw software

	sw.ID = id
	sw.Version = version
	f.content.SoftwareList.Count++
	f.content.SoftwareList.Software = append(f.content.SoftwareList.Software, sw)
}

// AppendDataProcessing adds info to the DataProcessing tag of the mzML file
func (f *MzML) AppendDataProcessing(proc DataProcessing) {
	f.content.DataProcessingList.Count++
	f.content.DataProcessingList.DataProcessingd = append(f.content.DataProcessingList.DataProcessingd, proc)
}

// AppendSpectrum adds a spectrum with the given id to the run.
// The m/z and intensity arrays are stored as zlib compressed 64 bit floats.
// It returns the index of the new spectrum.
func (f *MzML) AppendSpectrum(id string, p []Peak, msLevel int, centroid bool) (int, error) {
	if _, ok := f.id2Index[id]; ok {
		return 0, ErrInvalidScanID
	}
	index := f.NumSpecs()
	spec := spectrum{
		Index:              index,
		ID:                 id,
		DefaultArrayLength: int64(len(p)),
	}
	spec.CvPar = append(spec.CvPar,
		CVParam{CvRef: "MS", Accession: cvMSLevel, Name: "ms level", Value: strconv.Itoa(msLevel)})
	if msLevel == 1 {
		spec.CvPar = append(spec.CvPar,
			CVParam{CvRef: "MS", Accession: cvMS1Spectrum, Name: "MS1 spectrum"})
	}
	if centroid {
		spec.CvPar = append(spec.CvPar,
			CVParam{CvRef: "MS", Accession: cvCentroidSpectrum, Name: "centroid spectrum"})
	} else {
		spec.CvPar = append(spec.CvPar,
			CVParam{CvRef: "MS", Accession: cvProfileSpectrum, Name: "profile spectrum"})
	}
	var tic float64
	for _, peak := range p {
		tic += peak.Intens
	}
	spec.CvPar = append(spec.CvPar,
		CVParam{CvRef: "MS", Accession: cvTotalIonCurrent, Name: "total ion current",
			Value: strconv.FormatFloat(tic, 'g', -1, 64)})

	for _, mzArray := range []bool{true, false} {
		b64, err := encodeBinary(p, mzArray)
		if err != nil {
			return 0, err
		}
		arr := binaryDataArray{
			EncodedLength: len(b64),
			Binary:        b64,
			CvPar: []CVParam{
				{CvRef: "MS", Accession: cv64BitFloat, Name: "64-bit float"},
				{CvRef: "MS", Accession: cvZlibCompression, Name: "zlib compression"},
			},
		}
		if mzArray {
			arr.CvPar = append(arr.CvPar, CVParam{CvRef: "MS", Accession: cvMzArray, Name: "m/z array",
				UnitCvRef: "MS", UnitAccession: "MS:1000040", UnitName: "m/z"})
		} else {
			arr.CvPar = append(arr.CvPar, CVParam{CvRef: "MS", Accession: cvIntensityArray, Name: "intensity array",
				UnitCvRef: "MS", UnitAccession: "MS:1000131", UnitName: "number of detector counts"})
		}
		spec.BinaryDataArrayList.BinaryDataArray = append(spec.BinaryDataArrayList.BinaryDataArray, arr)
	}
	spec.BinaryDataArrayList.Count = len(spec.BinaryDataArrayList.BinaryDataArray)

	f.content.Run.SpectrumList.Spectrum = append(f.content.Run.SpectrumList.Spectrum, spec)
	f.content.Run.SpectrumList.Count = f.NumSpecs()
	f.index2id = append(f.index2id, id)
	f.id2Index[id] = index
	return index, nil
}

// encodeBinary encodes the m/z or intensity values of p as
// zlib compressed 64 bit little endian floats
func encodeBinary(p []Peak, mzArray bool) (string, error) {
	rawUncompressed := make([]byte, len(p)*8)
	for i, peak := range p {
		v := peak.Intens
		if mzArray {
			v = peak.Mz
		}
		binary.LittleEndian.PutUint64(rawUncompressed[(8*i):], math.Float64bits(v))
	}
	var b bytes.Buffer
	z := zlib.NewWriter(&b)
	if _, err := z.Write(rawUncompressed); err != nil {
		return "", err
	}
	// zlib writer must explicitly be closed here, otherwise result is invalid
	if err := z.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b.Bytes()), nil
}
