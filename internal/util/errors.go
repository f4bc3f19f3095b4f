package util

import "errors"

var (
	ErrEmailRegistered      = errors.New("该邮箱已被注册")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrExamNotFound         = errors.New("exam not found")
	ErrInvalidExamWindow    = errors.New("exam live date must be before dead date")
	ErrExamNotOpen          = errors.New("exam is not currently open")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrNoQuestions          = errors.New("no questions found for this exam")
	ErrTooFewOptions        = errors.New("question needs at least two options")
	ErrNoCorrectOption      = errors.New("question needs exactly one correct option")
	ErrExamAlreadySubmitted = errors.New("exam already submitted")
	ErrSubmissionNotFound   = errors.New("no submission found for this exam")
)
