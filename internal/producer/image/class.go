package image

import (
	"fmt"
	"strconv"
	"strings"

	"assetgen/internal/producer"
)

// Classify derives the "size/quality" price class from the size and quality
// parameters the Images API will be sent. A declared class that names a
// different size or quality than the parameters is rejected; a declared or
// fallback class fills in whichever of the two parameters is missing.
// Declared classes that are not of the size/quality form pass through
// untouched and are priced as written.
func Classify(params producer.Parameters, declared, fallback string) (string, producer.Parameters, error) {
	size, hasSize := params.String("size")
	quality, hasQuality := params.String("quality")
	size = strings.ToLower(strings.TrimSpace(size))
	quality = strings.ToLower(strings.TrimSpace(quality))

	source := declared
	if source == "" {
		source = fallback
	}
	classSize, classQuality, parsed := splitClass(source)
	if declared != "" {
		if !parsed {
			return declared, params, nil
		}
		if hasSize && size != classSize {
			return "", nil, producer.Wrap(producer.ErrInvalidParameters, kind, "classify",
				fmt.Sprintf("class %q contradicts size %q", declared, size), nil)
		}
		if hasQuality && classQuality != "" && quality != classQuality {
			return "", nil, producer.Wrap(producer.ErrInvalidParameters, kind, "classify",
				fmt.Sprintf("class %q contradicts quality %q", declared, quality), nil)
		}
	}
	if !hasSize {
		size = defaultSize
		if parsed {
			size = classSize
		}
	}
	if !hasQuality {
		quality = defaultQuality
		if parsed && classQuality != "" {
			quality = classQuality
		}
	}

	resolved := params.Clone()
	resolved["size"] = size
	resolved["quality"] = quality
	return size + "/" + quality, resolved, nil
}

func splitClass(class string) (size, quality string, ok bool) {
	if class == "" {
		return "", "", false
	}
	size, quality, _ = strings.Cut(strings.ToLower(class), "/")
	size = strings.TrimSpace(size)
	quality = strings.TrimSpace(quality)
	width, height, found := strings.Cut(size, "x")
	if !found {
		return "", "", false
	}
	if _, err := strconv.Atoi(width); err != nil {
		return "", "", false
	}
	if _, err := strconv.Atoi(height); err != nil {
		return "", "", false
	}
	return size, quality, true
}
