package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

const testToken = "AAAAAAAAAAAAAAAAAAAAAMLheAAAAAAA0%2BuSeid%2BULvsea4JtiGRiSDSJSI%3DEUifiRBkKG5E2XzMDjRfl76ZC9Ub0wnz4XsNiRVBChTYbJcE3F"

func TestManagerStoreRetrieveDelete(t *testing.T) {
	manager, store := NewMockManager()

	account := &Account{Name: "research", BearerToken: testToken}
	require.NoError(t, manager.Store(account))
	assert.False(t, account.LastModified.IsZero())

	retrieved, err := manager.Retrieve("research")
	require.NoError(t, err)
	assert.Equal(t, testToken, retrieved.BearerToken)

	accounts, err := manager.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	require.NoError(t, manager.Delete("research"))
	_, err = manager.Retrieve("research")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Equal(t, 0, store.Count())
}

func TestManagerStoreDefaultsName(t *testing.T) {
	manager, store := NewMockManager()

	require.NoError(t, manager.Store(&Account{BearerToken: testToken}))
	assert.True(t, store.Exists(DefaultAccountName))
}

func TestManagerStoreRequiresToken(t *testing.T) {
	manager, _ := NewMockManager()
	assert.Error(t, manager.Store(&Account{Name: "x"}))
	assert.ErrorIs(t, manager.Store(nil), ErrInvalidCredentials)
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()
	manager := NewManagerWithStores(broken, working)

	require.NoError(t, manager.Store(&Account{Name: "a", BearerToken: testToken}))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())

	retrieved, err := manager.Retrieve("a")
	require.NoError(t, err)
	assert.Equal(t, testToken, retrieved.BearerToken)
}

func TestManagerStoreAllFail(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("disk full")
	manager := NewManagerWithStores(broken)

	err := manager.Store(&Account{Name: "a", BearerToken: testToken})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	now := time.Now()
	require.NoError(t, older.Store(&Account{Name: "a", BearerToken: "old", LastModified: now.Add(-time.Hour)}))
	require.NoError(t, newer.Store(&Account{Name: "a", BearerToken: "new", LastModified: now}))
	require.NoError(t, newer.Store(&Account{Name: "b", BearerToken: "other", LastModified: now.Add(-2 * time.Hour)}))

	accounts, err := NewManagerWithStores(older, newer).List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "a", accounts[0].Name)
	assert.Equal(t, "new", accounts[0].BearerToken)
	assert.Equal(t, "b", accounts[1].Name)
}

func TestManagerDeleteMissing(t *testing.T) {
	manager, _ := NewMockManager()
	assert.ErrorIs(t, manager.Delete("ghost"), ErrCredentialsNotFound)
}

func TestResolveToken(t *testing.T) {
	t.Setenv(TokenEnv, "")
	store := NewMockStore()
	manager := NewManagerWithStores(store, NewEnvironmentStore())

	_, err := manager.ResolveToken("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Account{Name: "work", BearerToken: "work-token", LastModified: time.Now()}))
	token, err := manager.ResolveToken("")
	require.NoError(t, err)
	assert.Equal(t, "work-token", token)

	require.NoError(t, store.Store(&Account{Name: DefaultAccountName, BearerToken: "default-token"}))
	token, err = manager.ResolveToken("")
	require.NoError(t, err)
	assert.Equal(t, "default-token", token)

	token, err = manager.ResolveToken("work")
	require.NoError(t, err)
	assert.Equal(t, "work-token", token)

	t.Setenv(TokenEnv, "env-token")
	token, err = manager.ResolveToken("")
	require.NoError(t, err)
	assert.Equal(t, "env-token", token)
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Name: "a", BearerToken: testToken}
	sanitized := SanitizeAccount(account)

	assert.Equal(t, "a", sanitized.Name)
	assert.Equal(t, "AAAA...cE3F", sanitized.BearerToken)
	assert.Equal(t, testToken, account.BearerToken)
	assert.Equal(t, "********", MaskToken("short"))
	assert.Nil(t, SanitizeAccount(nil))
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.enc")
	store, err := NewEncryptedFileStoreWithPassphrase(path, "test passphrase")
	require.NoError(t, err)

	_, err = store.Retrieve("a")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Account{Name: "a", BearerToken: testToken}))
	require.NoError(t, store.Store(&Account{Name: "b", BearerToken: "second-token"}))
	assert.True(t, store.Exists("a"))

	retrieved, err := store.Retrieve("a")
	require.NoError(t, err)
	assert.Equal(t, testToken, retrieved.BearerToken)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), testToken)
	assert.NotContains(t, string(content), "second-token")
	assert.NoFileExists(t, path+".tmp")

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	require.NoError(t, store.Delete("a"))
	require.NoError(t, store.Delete("b"))
	assert.NoFileExists(t, path)
	assert.ErrorIs(t, store.Delete("b"), ErrCredentialsNotFound)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStoreWithPassphrase(path, "right")
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Name: "a", BearerToken: testToken}))

	other, err := NewEncryptedFileStoreWithPassphrase(path, "wrong")
	require.NoError(t, err)
	_, err = other.Retrieve("a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStorePassphraseSources(t *testing.T) {
	dir := t.TempDir()

	t.Setenv(PassphraseEnv, "from-env")
	store, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", store.passphrase)
	assert.NoFileExists(t, filepath.Join(dir, ".passphrase"))

	t.Setenv(PassphraseEnv, "")
	generated, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, ".passphrase"))

	again, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	assert.Equal(t, generated.passphrase, again.passphrase)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(TokenEnv, "")
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	accounts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)

	t.Setenv(TokenEnv, "env-token")
	account, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAccountName, account.Name)
	assert.Equal(t, "env-token", account.BearerToken)
	assert.True(t, store.Exists(DefaultAccountName))
	assert.False(t, store.Exists("other"))

	assert.ErrorIs(t, store.Store(&Account{}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete(DefaultAccountName), ErrStoreUnavailable)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(&Account{Name: "b", BearerToken: "token-b"}))
	require.NoError(t, store.Store(&Account{Name: "a", BearerToken: "token-a"}))
	require.NoError(t, store.Store(&Account{Name: "a", BearerToken: "token-a2"}))
	assert.True(t, store.Exists("a"))

	accounts, err := store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "a", accounts[0].Name)
	assert.Equal(t, "token-a2", accounts[0].BearerToken)

	require.NoError(t, store.Delete("a"))
	assert.False(t, store.Exists("a"))
	assert.ErrorIs(t, store.Delete("a"), ErrCredentialsNotFound)

	accounts, err = store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "b", accounts[0].Name)
}

func TestMockStoreErrorInjection(t *testing.T) {
	store := NewMockStore()
	store.ListError = errors.New("injected")

	_, err := store.List()
	assert.EqualError(t, err, "injected")

	manager := NewManagerWithStores(store)
	accounts, err := manager.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestShowTokenGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowTokenGuide(&buf)
	assert.Contains(t, buf.String(), "Bearer Token")
	assert.Contains(t, buf.String(), TokenEnv)

	buf.Reset()
	ShowQuickTokenGuide(&buf)
	assert.Contains(t, buf.String(), "Keys and tokens")
}
