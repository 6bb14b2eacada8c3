package domain

import (
	"encoding/json"
	"io"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Username     string             `bson:"username" json:"username" validate:"required,onlyCharAndNum"`
	Email        string             `bson:"email" json:"email" validate:"required,email"`
	ContactPhone string             `bson:"contactPhone,omitempty" json:"contactPhone,omitempty" validate:"omitempty,phone"`
	Password     string             `bson:"password" json:"password,omitempty"`
	IsAdmin      bool               `bson:"isAdmin" json:"isAdmin"`
}

type Room struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

type Reservation struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	RoomID    primitive.ObjectID `bson:"roomId" json:"roomId"`
	Date      string             `bson:"date" json:"date"`
	Time      string             `bson:"time" json:"time"`
	Canceled  bool               `bson:"canceled" json:"canceled"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Reservations []*Reservation

// ReservationDetails is a reservation joined with its user and room,
// used for the administrative listing.
type ReservationDetails struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	RoomName string             `json:"roomName"`
	Date     string             `json:"date"`
	Time     string             `json:"time"`
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Claims struct {
	UserID    primitive.ObjectID `json:"user_id"`
	Username  string             `json:"username"`
	Role      string             `json:"role"`
	ExpiresAt time.Time          `json:"expires_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type ReservationRequest struct {
	RoomName string `json:"roomName" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required,datetime=15:04"`
}

type ProfileUpdate struct {
	Username     string `json:"username" validate:"required,onlyCharAndNum"`
	Email        string `json:"email" validate:"required,email"`
	ContactPhone string `json:"contactPhone,omitempty" validate:"omitempty,phone"`
	Password     string `json:"password,omitempty"`
}

type RecoverTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RecoverPasswordRequest struct {
	UserToken   string `json:"user_token" validate:"required"`
	MailToken   string `json:"mail_token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

func newValidator() (*validator.Validate, error) {
	validate := validator.New()

	err := validate.RegisterValidation("onlyCharAndNum", onlyCharactersAndNumbersField)
	if err != nil {
		return nil, err
	}

	err = validate.RegisterValidation("phone", phoneField)
	if err != nil {
		return nil, err
	}

	return validate, nil
}

// Allows letters [a-z], numbers [0-9], underscores and hyphens
func onlyCharactersAndNumbersField(fl validator.FieldLevel) bool {
	re := regexp.MustCompile(`^[-_a-zA-Z0-9]{3,30}$`)
	return re.MatchString(fl.Field().String())
}

// Allows digits, spaces, plus and hyphen, e.g. "555-1234"
func phoneField(fl validator.FieldLevel) bool {
	re := regexp.MustCompile(`^[+]?[0-9][0-9\s-]{3,19}$`)
	return re.MatchString(fl.Field().String())
}

func (user *User) Validate() error {
	validate, err := newValidator()
	if err != nil {
		return err
	}
	return validate.Struct(user)
}

func (request *ReservationRequest) Validate() error {
	validate, err := newValidator()
	if err != nil {
		return err
	}
	return validate.Struct(request)
}

func (update *ProfileUpdate) Validate() error {
	validate, err := newValidator()
	if err != nil {
		return err
	}
	return validate.Struct(update)
}

func (request *RecoverTokenRequest) Validate() error {
	validate, err := newValidator()
	if err != nil {
		return err
	}
	return validate.Struct(request)
}

func (user *User) FromJSON(reader io.Reader) error {
	d := json.NewDecoder(reader)
	return d.Decode(user)
}

func (request *ReservationRequest) FromJSON(reader io.Reader) error {
	d := json.NewDecoder(reader)
	return d.Decode(request)
}

func (o *Reservation) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(o)
}

func (o *Reservations) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(o)
}
