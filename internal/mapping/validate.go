package mapping

import (
	"errors"
	"fmt"
	"slices"

	"labelflow/internal/diagnostic"
	"labelflow/internal/question"
)

// Validate checks a mapping file against the original column names of a
// dataset. It is a dry run of the configuration: renames are applied together
// to a scratch mapping, the selection is resolved against the resulting display
// names and every question is validated.
func Validate(mf *MappingFile, originals []string) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if mf == nil {
		res.AddError("mapping_is_nil", "mapping file is nil", "", "")
		return res
	}

	if mf.Version != CurrentVersion {
		res.AddError("unsupported_version", fmt.Sprintf("unsupported version %q, expected %q", mf.Version, CurrentVersion), "", mf.Version)
	}

	fm := NewFieldMapping(originals)
	validateRenames(res, mf, fm)

	titles := validateQuestions(res, mf)
	for _, t := range titles {
		if _, ok := fm.Original(t); ok {
			res.AddError("question_field_collision", "a question title must not equal a field name", "questions", t)
		}
	}

	validateSelection(res, mf, fm)

	return res
}

// validateRenames reports every problem in the rename section and installs
// the resulting entries into fm so later checks see the final names.
func validateRenames(res *diagnostic.Diagnostics, mf *MappingFile, fm *FieldMapping) {
	next, errs := fm.planRenames(mf.Rename)
	fm.names = next

	for _, err := range errs {
		var (
			ufe *UnknownFieldError
			ire *InvalidRenameError
		)

		switch {
		case errors.As(err, &ufe):
			res.AddError("unknown_field", "rename source is not a field of the dataset", "rename", ufe.Name, ufe.Suggestions...)
		case errors.As(err, &ire):
			res.AddError("invalid_rename", err.Error(), "rename", ire.Original)
		}
	}
}

func validateQuestions(res *diagnostic.Diagnostics, mf *MappingFile) []string {
	if len(mf.Questions) == 0 {
		res.AddWarning("no_questions", "no questions defined; export will be rejected", "questions", "")
		return nil
	}

	reg := question.NewRegistry()

	for i, d := range mf.Questions {
		scope := fmt.Sprintf("questions[%d]", i)

		q, err := d.Question()
		if err != nil {
			res.AddError("invalid_question", err.Error(), scope, d.Title)
			continue
		}

		if err := reg.Add(q); err != nil {
			res.AddError("duplicate_question", err.Error(), scope, q.Title)
		}
	}

	return reg.Titles()
}

func validateSelection(res *diagnostic.Diagnostics, mf *MappingFile, fm *FieldMapping) {
	sel, err := Select(mf.Select)
	if err != nil {
		res.AddError("empty_selection", "select at least one field", "select", "")
		return
	}

	if sel.Len() != len(mf.Select) {
		res.AddWarning("duplicate_selection", "selection repeats a field or lists a blank name", "select", "")
	}

	available := fm.DisplayNames()

	for _, name := range sel.Names() {
		if !slices.Contains(available, name) {
			ufe := NewUnknownFieldError(name, available)
			res.AddError("unknown_field", "selected field does not exist after renames", "select", name, ufe.Suggestions...)
		}
	}
}
