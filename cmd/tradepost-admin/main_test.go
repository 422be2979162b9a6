package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
)

func TestIsLikelyRemoteHost(t *testing.T) {
	assert.False(t, isLikelyRemoteHost("localhost"))
	assert.False(t, isLikelyRemoteHost("127.0.0.1"))
	assert.False(t, isLikelyRemoteHost("::1"))
	assert.False(t, isLikelyRemoteHost("db.local"))
	assert.False(t, isLikelyRemoteHost(""))

	assert.True(t, isLikelyRemoteHost("db.prod.example.com"))
	assert.True(t, isLikelyRemoteHost("10.1.2.3"))
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"tradepost"`, quoteIdentifier("tradepost"))
	assert.Equal(t, `"odd""user"`, quoteIdentifier(`odd"user`))
}

func TestParseRoleGrantFlags(t *testing.T) {
	opts, err := parseRoleGrantFlags([]string{"--identity", "u1", "--role", "moderator"})
	require.NoError(t, err)
	assert.Equal(t, "u1", opts.IdentityID)
	assert.Equal(t, domainauth.RoleModerator, opts.Role)
	assert.Equal(t, "admin-cli", opts.GrantedBy)

	_, err = parseRoleGrantFlags([]string{"--role", "admin"})
	require.Error(t, err)

	_, err = parseRoleGrantFlags([]string{"--identity", "u1", "--role", "superuser"})
	require.Error(t, err)
}

func TestParseRoleListFlagsRejectsBadPaging(t *testing.T) {
	_, err := parseRoleListFlags([]string{"--limit", "0"})
	require.Error(t, err)

	_, err = parseRoleListFlags([]string{"--offset", "-1"})
	require.Error(t, err)

	opts, err := parseRoleListFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, 50, opts.Limit)
}

func TestParseImportFlagsRequiresFile(t *testing.T) {
	_, err := parseImportFlags("import-items", nil)
	require.Error(t, err)

	opts, err := parseImportFlags("import-items", []string{"--file", "items.json", "--dry-run"})
	require.NoError(t, err)
	assert.Equal(t, "items.json", opts.File)
	assert.True(t, opts.DryRun)
}

func TestDecodeItemsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	payload := `[
		{"id": "itm-1", "game": "resurrected", "name": "Harlequin Crest", "category": "helm", "quality": "unique", "level_req": 62},
		{"id": "itm-2", "game": "classic", "name": "The Oculus", "category": "wand", "quality": "unique", "level_req": 42}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	items, err := decodeItemsFile(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Harlequin Crest", items[0].Name)
}

func TestDecodeItemsFileRejectsInvalidRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	payload := `[{"id": "itm-1", "game": "unknown-game", "name": "Broken"}]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	_, err := decodeItemsFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 0")
}

func TestDecodeItemsFileRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	_, err := decodeItemsFile(path)
	require.Error(t, err)
}

func TestDecodeRunewordsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runewords.json")
	payload := `[
		{"id": "rw-1", "game": "resurrected", "name": "Enigma", "runes": ["Jah", "Ith", "Ber"], "base_types": ["body armor"], "sockets": 3, "level_req": 65}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	runewords, err := decodeRunewordsFile(path)
	require.NoError(t, err)
	require.Len(t, runewords, 1)
	assert.Equal(t, []string{"Jah", "Ith", "Ber"}, runewords[0].Runes)
}

func TestDecodeRunewordsFileRejectsSocketMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runewords.json")
	payload := `[{"id": "rw-1", "game": "classic", "name": "Stealth", "runes": ["Tal", "Eth"], "sockets": 1}]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	_, err := decodeRunewordsFile(path)
	require.Error(t, err)
}

func TestParseCreateAccountFlags(t *testing.T) {
	opts, err := parseCreateAccountFlags([]string{"--email", "ops@example.com", "--username", "ops", "--password", "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", opts.Email)
	assert.Equal(t, "hunter22", opts.Password)

	_, err = parseCreateAccountFlags([]string{"--username", "ops"})
	require.Error(t, err)

	_, err = parseCreateAccountFlags([]string{"--email", "ops@example.com"})
	require.Error(t, err)
}
