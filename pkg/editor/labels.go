package editor

import (
	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/platinummonkey/protoform/pkg/descriptor"
)

const (
	optionalSuffix = " (Optional)"
	choiceSuffix   = " (Select One)"
)

// Humanize turns a proto identifier into a caption: "dry_run" becomes "Dry Run"
func Humanize(name string) string {
	// a Caser keeps state and is not shared
	return cases.Title(language.English).String(strcase.ToDelimited(name, ' '))
}

func fieldLabel(fd *descriptor.FieldDescriptor) string {
	label := Humanize(fd.Name)
	if fd.Optional {
		label += optionalSuffix
	}
	return label
}

func choiceLabel(name string) string {
	return Humanize(name) + choiceSuffix
}
