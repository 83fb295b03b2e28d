package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	Cash   PaymentMethod = "CASH"
	Bank   PaymentMethod = "BANK"
	Esewa  PaymentMethod = "ESEWA"
	Khalti PaymentMethod = "KHALTI"
)

const (
	RoleAdmin      Role = "ADMIN"
	RoleAccountant Role = "ACCOUNTANT"
	RoleViewer     Role = "VIEWER"
)

const (
	StudentActive   StudentStatus = "ACTIVE"
	StudentInactive StudentStatus = "INACTIVE"
)

// Field limits shared by validation and storage schemas.
const (
	MaxReferenceLen    = 100
	MaxDescriptionLen  = 500
	MaxCategoryNameLen = 100
	MaxStudentNameLen  = 150
	MaxClassLen        = 50
	MaxRollNoLen       = 20
)

type (
	TransactionType string
	PaymentMethod   string
	Role            string
	StudentStatus   string

	// Transaction is a ledger entry. It is never deleted; IsVoided is terminal.
	Transaction struct {
		ID              string          `json:"id"`
		Type            TransactionType `json:"type"`
		Date            Date            `json:"date"`
		Amount          Money           `json:"amount"`
		CategoryID      string          `json:"categoryId"`
		StudentID       string          `json:"studentId,omitempty"`
		PaymentMethod   PaymentMethod   `json:"paymentMethod"`
		ReferenceNumber string          `json:"referenceNumber,omitempty"`
		Description     string          `json:"description,omitempty"`
		IsVoided        bool            `json:"isVoided"`
		CreatedByID     string          `json:"createdById"`
		CreatedByName   string          `json:"createdByName"`
		Version         int64           `json:"version"`
		CreatedAt       time.Time       `json:"createdAt"`
		UpdatedAt       time.Time       `json:"updatedAt"`
	}

	// TransactionDetail is a transaction joined with the names shown next to it.
	TransactionDetail struct {
		Transaction
		CategoryName string          `json:"categoryName"`
		CategoryType TransactionType `json:"categoryType"`
		StudentName  string          `json:"studentName,omitempty"`
		StudentClass string          `json:"studentClass,omitempty"`
	}

	Category struct {
		ID        string          `json:"id" db:"id"`
		Name      string          `json:"name" db:"name"`
		Type      TransactionType `json:"type" db:"type"`
		CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	}

	Student struct {
		ID        string        `json:"id" db:"id"`
		Name      string        `json:"name" db:"name"`
		Class     string        `json:"class" db:"class"`
		RollNo    string        `json:"rollNo" db:"roll_no"`
		Status    StudentStatus `json:"status" db:"status"`
		CreatedAt time.Time     `json:"createdAt" db:"created_at"`
		UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`
	}

	OpeningBalance struct {
		ID        string    `json:"id"`
		Amount    Money     `json:"amount"`
		Date      Date      `json:"date"`
		Note      string    `json:"note,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Caller is the identity supplied by the authentication oracle.
	Caller struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Role Role   `json:"role"`
	}
)

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (p PaymentMethod) IsValid() bool {
	switch p {
	case Cash, Bank, Esewa, Khalti:
		return true
	}
	return false
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleAccountant, RoleViewer:
		return true
	}
	return false
}

func (s StudentStatus) IsValid() bool {
	return s == StudentActive || s == StudentInactive
}

// TransactionInput is the raw form of a create or update request.
// Every field arrives as a string and is parsed by Parse.
type TransactionInput struct {
	Type            string `json:"type"`
	Date            string `json:"date"`
	Amount          string `json:"amount"`
	CategoryID      string `json:"categoryId"`
	StudentID       string `json:"studentId"`
	PaymentMethod   string `json:"paymentMethod"`
	ReferenceNumber string `json:"referenceNumber"`
	Description     string `json:"description"`
}

// Parse validates the input and returns a transaction holding only the
// mutable fields. The first failing field determines the error message.
func (in TransactionInput) Parse() (Transaction, error) {
	var t Transaction

	t.Type = TransactionType(strings.TrimSpace(in.Type))
	if !t.Type.IsValid() {
		return Transaction{}, Validation("Invalid transaction type")
	}

	dateStr := strings.TrimSpace(in.Date)
	if dateStr == "" {
		return Transaction{}, Validation("Date is required")
	}
	d, err := ParseDate(dateStr)
	if err != nil {
		return Transaction{}, err
	}
	t.Date = d

	amount, err := ParseMoney(in.Amount)
	if err != nil {
		return Transaction{}, err
	}
	t.Amount = amount

	t.CategoryID = strings.TrimSpace(in.CategoryID)
	if !IsUUID(t.CategoryID) {
		return Transaction{}, Validation("Invalid category")
	}

	t.StudentID = strings.TrimSpace(in.StudentID)
	if t.StudentID != "" && !IsUUID(t.StudentID) {
		return Transaction{}, Validation("Invalid student")
	}

	t.PaymentMethod = PaymentMethod(strings.TrimSpace(in.PaymentMethod))
	if !t.PaymentMethod.IsValid() {
		return Transaction{}, Validation("Invalid payment method")
	}

	t.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	if utf8.RuneCountInString(t.ReferenceNumber) > MaxReferenceLen {
		return Transaction{}, Validation("Reference number is too long")
	}

	t.Description = strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLen {
		return Transaction{}, Validation("Description is too long")
	}

	return t, nil
}

type CategoryInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (in CategoryInput) Parse() (Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Category{}, Validation("Category name is required")
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLen {
		return Category{}, Validation("Category name is too long")
	}
	typ := TransactionType(strings.TrimSpace(in.Type))
	if !typ.IsValid() {
		return Category{}, Validation("Invalid category type")
	}
	return Category{Name: name, Type: typ}, nil
}

type StudentInput struct {
	Name   string `json:"name"`
	Class  string `json:"class"`
	RollNo string `json:"rollNo"`
	Status string `json:"status"`
}

func (in StudentInput) Parse() (Student, error) {
	s := Student{
		Name:   strings.TrimSpace(in.Name),
		Class:  strings.TrimSpace(in.Class),
		RollNo: strings.TrimSpace(in.RollNo),
		Status: StudentStatus(strings.TrimSpace(in.Status)),
	}
	switch {
	case s.Name == "":
		return Student{}, Validation("Student name is required")
	case utf8.RuneCountInString(s.Name) > MaxStudentNameLen:
		return Student{}, Validation("Name is too long")
	case s.Class == "":
		return Student{}, Validation("Class is required")
	case utf8.RuneCountInString(s.Class) > MaxClassLen:
		return Student{}, Validation("Class is too long")
	case s.RollNo == "":
		return Student{}, Validation("Roll number is required")
	case utf8.RuneCountInString(s.RollNo) > MaxRollNoLen:
		return Student{}, Validation("Roll number is too long")
	}
	if s.Status == "" {
		s.Status = StudentActive
	}
	if !s.Status.IsValid() {
		return Student{}, Validation("Invalid student status")
	}
	return s, nil
}

type OpeningBalanceInput struct {
	Amount string `json:"amount"`
	Date   string `json:"date"`
	Note   string `json:"note"`
}

func (in OpeningBalanceInput) Parse() (OpeningBalance, error) {
	amount, err := ParseMoney(in.Amount)
	if err != nil {
		return OpeningBalance{}, err
	}
	d, err := ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return OpeningBalance{}, err
	}
	note := strings.TrimSpace(in.Note)
	if utf8.RuneCountInString(note) > MaxDescriptionLen {
		return OpeningBalance{}, Validation("Note is too long")
	}
	return OpeningBalance{Amount: amount, Date: d, Note: note}, nil
}

// IsUUID reports whether s is a canonical UUID string.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}
