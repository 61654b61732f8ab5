package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() RegistrationRequest {
	return RegistrationRequest{
		Email:       "ana@x.com",
		DisplayName: "Ana Lopez",
		NationalID:  "0912345678",
		Phone:       "0998765432",
	}
}

func TestValidateRegistration_Valid(t *testing.T) {
	assert.NoError(t, ValidateRegistration(validRequest()))
}

func TestValidateRegistration_FieldBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *RegistrationRequest)
		field   string
		wantErr bool
	}{
		{name: "short email accepted", mutate: func(r *RegistrationRequest) { r.Email = "a@b.co" }},
		{name: "email starting with digit", mutate: func(r *RegistrationRequest) { r.Email = "1bad@x.co" }, field: "email", wantErr: true},
		{name: "email without domain", mutate: func(r *RegistrationRequest) { r.Email = "ana@" }, field: "email", wantErr: true},
		{name: "email with one letter tld", mutate: func(r *RegistrationRequest) { r.Email = "ana@x.c" }, field: "email", wantErr: true},
		{name: "nine digit id", mutate: func(r *RegistrationRequest) { r.NationalID = "091234567" }, field: "national_id", wantErr: true},
		{name: "eleven digit id", mutate: func(r *RegistrationRequest) { r.NationalID = "09123456789" }, field: "national_id", wantErr: true},
		{name: "id with letters", mutate: func(r *RegistrationRequest) { r.NationalID = "09123456ab" }, field: "national_id", wantErr: true},
		{name: "phone starting 08", mutate: func(r *RegistrationRequest) { r.Phone = "0898765432" }, field: "phone", wantErr: true},
		{name: "phone too short", mutate: func(r *RegistrationRequest) { r.Phone = "099876543" }, field: "phone", wantErr: true},
		{name: "id 123456789 rejected", mutate: func(r *RegistrationRequest) { r.NationalID = "123456789" }, field: "national_id", wantErr: true},
		{name: "id 1234567890 accepted", mutate: func(r *RegistrationRequest) { r.NationalID = "1234567890" }},
		{name: "phone 0991234567 accepted", mutate: func(r *RegistrationRequest) { r.Phone = "0991234567" }},
		{name: "phone 0891234567 rejected", mutate: func(r *RegistrationRequest) { r.Phone = "0891234567" }, field: "phone", wantErr: true},
		{name: "single name", mutate: func(r *RegistrationRequest) { r.DisplayName = "Ana" }, field: "display_name", wantErr: true},
		{name: "one letter token", mutate: func(r *RegistrationRequest) { r.DisplayName = "Ana L" }, field: "display_name", wantErr: true},
		{name: "accented names accepted", mutate: func(r *RegistrationRequest) { r.DisplayName = "José Núñez" }},
		{name: "three names accepted", mutate: func(r *RegistrationRequest) { r.DisplayName = "María José Pérez" }},
		{name: "missing phone", mutate: func(r *RegistrationRequest) { r.Phone = "" }, field: "phone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := ValidateRegistration(req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var validationErrs ValidationErrors
			require.True(t, errors.As(err, &validationErrs))
			assert.Contains(t, validationErrs.Fields(), tt.field)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestValidateRegistration_ReportsEveryField(t *testing.T) {
	err := ValidateRegistration(RegistrationRequest{})

	var validationErrs ValidationErrors
	require.True(t, errors.As(err, &validationErrs))
	fields := validationErrs.Fields()
	assert.Len(t, fields, 4)
	assert.Equal(t, "is required", fields["email"])
}

func TestRegistrationRequest_Normalize(t *testing.T) {
	req := RegistrationRequest{
		Email:       "  Ana@X.com ",
		DisplayName: "  Ana   Lopez ",
		NationalID:  " 0912345678",
		Phone:       "0998765432 ",
	}.Normalize()

	assert.Equal(t, "ana@x.com", req.Email)
	assert.Equal(t, "Ana Lopez", req.DisplayName)
	assert.Equal(t, "0912345678", req.NationalID)
	assert.Equal(t, "0998765432", req.Phone)
	assert.NoError(t, ValidateRegistration(req))
}
