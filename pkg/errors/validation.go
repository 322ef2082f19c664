package errors

import (
	"net/url"
	"regexp"
)

// imageName matches generated image names: a zero-padded index and a
// format extension, with no directory part.
var imageName = regexp.MustCompile(`^[0-9]{3,}\.(png|svg)$`)

// ValidateImageName checks an img_name read from a record file before it is
// joined to a dataset directory. Anything but "NNN.png" or "NNN.svg" is
// rejected, which rules out separators and ".." as well.
func ValidateImageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "image name is empty")
	}
	if !imageName.MatchString(name) {
		return New(ErrCodeInvalidPath, "invalid image name %q (want e.g. 007.png)", name)
	}
	return nil
}

// ValidateURL checks that raw is an absolute http(s) URL with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL %q has no host", raw)
	}
	return nil
}

// ValidateUnitInterval checks 0 <= v < hi; name labels the error.
func ValidateUnitInterval(name string, v, hi float64) error {
	if v < 0 || v >= hi {
		return New(ErrCodeInvalidConfig, "%s must be in [0, %g), got %g", name, hi, v)
	}
	return nil
}
