// Copyright (c) 2026 Bloomify. All rights reserved.

package mail

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestSMTPSender_Send checks the relay address, envelope and message headers.
*/
func TestSMTPSender_Send(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "587", Username: "noreply@bloomify.app", Password: "pw"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	sender.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := sender.Send(context.Background(), "a@x.com", "OTP", "Your OTP is ABC123")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@bloomify.app", gotFrom)
	assert.Equal(t, []string{"a@x.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: OTP\r\n")
	assert.Contains(t, string(gotMsg), "Your OTP is ABC123")
}

/*
TestSMTPSender_Failures covers relay errors and header injection.
*/
func TestSMTPSender_Failures(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "587"})
	sender.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	assert.Error(t, sender.Send(context.Background(), "a@x.com", "OTP", "body"))
	assert.Error(t, sender.Send(context.Background(), "a@x.com\r\nBcc: b@x.com", "OTP", "body"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sender.Send(ctx, "a@x.com", "OTP", "body"), context.Canceled)
}
