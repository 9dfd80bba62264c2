/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package provider

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAESRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef") // AES-256
	iv := []byte("abcdef0123456789")

	plaintext := []byte(`{"orderId":"ord_1","amount":"98.40"}`)
	encrypted, err := aesEncrypt(key, iv, plaintext)
	assert.NoError(t, err)
	assert.NotEmpty(t, encrypted)

	decrypted, err := aesDecrypt(key, iv, encrypted)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestAESEncrypt_BadKey(t *testing.T) {
	_, err := aesEncrypt([]byte("short"), []byte("abcdef0123456789"), []byte("data"))
	assert.Error(t, err)
}

func TestAESEncrypt_BadIV(t *testing.T) {
	key := []byte("0123456789abcdef")
	_, err := aesEncrypt(key, []byte("short-iv"), []byte("data"))
	assert.Error(t, err)
}

func TestAESDecrypt_GarbledCiphertext(t *testing.T) {
	key := []byte("0123456789abcdef")
	iv := []byte("abcdef0123456789")

	_, err := aesDecrypt(key, iv, "not-base64!!")
	assert.Error(t, err)

	_, err = aesDecrypt(key, iv, "c2hvcnQ=") // valid base64, wrong block length
	assert.Error(t, err)
}

func TestRSASignAndVerify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)

	body := []byte(`{"storeId":"42","amount":"100.00"}`)
	signature, err := rsaSign(key, body)
	assert.NoError(t, err)

	assert.NoError(t, rsaVerify(&key.PublicKey, body, signature))
	assert.Error(t, rsaVerify(&key.PublicKey, []byte("tampered body"), signature))
	assert.Error(t, rsaVerify(&key.PublicKey, body, "bm90LWEtc2ln"))
}

func TestLoadRSAPrivateKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	path := filepath.Join(t.TempDir(), "easypaisa.pem")
	assert.NoError(t, os.WriteFile(path, pemBytes, 0o600))

	loaded, err := loadRSAPrivateKey(path)
	assert.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	_, err = loadRSAPrivateKey(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}
