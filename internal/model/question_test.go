package model

import "testing"

func TestCorrectOption(t *testing.T) {
	q := &Question{Options: []QuestionOption{
		{OptionText: "A"},
		{OptionText: "B", IsCorrect: true},
		{OptionText: "C"},
	}}

	opt := q.CorrectOption()
	if opt == nil || opt.OptionText != "B" {
		t.Errorf("CorrectOption() = %+v, want B", opt)
	}
}

func TestCorrectOptionNone(t *testing.T) {
	q := &Question{Options: []QuestionOption{{OptionText: "A"}}}
	if opt := q.CorrectOption(); opt != nil {
		t.Errorf("CorrectOption() = %+v, want nil", opt)
	}
}
