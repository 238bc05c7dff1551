// Package imaging prepares pictures before they are uploaded to the
// marketplace: the format is sniffed, the image decoded, downscaled with
// CatmullRom when larger than the limit, and re-encoded.
package imaging
