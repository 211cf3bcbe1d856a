package sif

import "github.com/robert-malhotra/go-sif/internal/header"

// FileHeader is the decoded header of a SIF file. It is never modified after
// Open returns; File.Header hands out copies.
type FileHeader = header.Header

// Crop is the sensor readout region in raw, unbinned sensor coordinates.
type Crop = header.Crop

// Signature is the first line of every SIF file.
const Signature = header.Signature

// Polyval evaluates a polynomial with coefficients ordered highest degree
// first, the order of FileHeader.WavelengthCoefficients.
var Polyval = header.Polyval
