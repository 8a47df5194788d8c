package transport

import (
	"github.com/cuemby/ksm/pkg/crypto"
	"github.com/cuemby/ksm/pkg/kerr"
)

// DefaultKeyID is the server public key used until the server asks for
// another one.
const DefaultKeyID = "10"

// serverPublicKeys maps key ids to uncompressed SEC1 P-256 points
// (URL-safe base64). The server names the active id in key-rotation
// errors; ids outside this table are unusable and surface as errors.
var serverPublicKeys = map[string]string{
	"7":  "BPyQD2HFCHQw3xhUuZvFqd6pLUBEuyP-adksd0XTWH9luBNXLKkioD128ph5UL8RZcpck-MPAqc8T4JMLx6srSM",
	"8":  "BC6_urlsGZ6KH4qI8pa5ZYXpZGSLbC-7gdXgqlWNtmSHqhKlHEdRgjQZLbT8ecpgz0nqMeFhM-3En7d1OOQWrQQ",
	"9":  "BJSMAcRqPTsGrVBCw_cF-0F6rpLhIvql4nUj6bWopT9P1hMwBeopGMl3g1gfaZK0O3mORQ_shr0XNLg02QtLeaM",
	"10": "BGlvrFc1LoX3wrDUJQ8ShuL_yFUNUmDH4XfT5nWYpufGf1ODrbOlJO_gbFZ6gHHtqsX3NPLKLxbi9dS0Yyu3C-E",
	"11": "BHpdhZuBqx9jd__v9oO17ChToSmORuMCC7AkxYNT-2MJQ2e52at3xZUSC7MrqY-60NiRaNptWsICEVBGmvbtpnI",
	"12": "BDSOjKdrxT2n1d5VjpHP4lXkgNVvaYXFxk-9vq1MXsTFFgb1aaQY1H_IINMqVoBm_GXHcBGtqtzOOfQ2TUXpPtU",
	"13": "BNfhnznOawHSkw8hltrrDuj0LWrgkYveRo3HM4fnZY3Z_75Mh2CNohza7veV3QmHv0x0bKxjPQSaZxr2dhPAK8I",
	"14": "BOlNVECd7Ijx4dlnekxxSqz1Zy8PXobFxPFPZC-BHrYfHQR3hnHFoBFgeuzXQPFshcfLIOMOmyfIqlTIiWavl_I",
	"15": "BEigbQbLEatczjM72aIC_rQrrzRTaGv1DgqiHDRIPw5QIJR2nZkaP6Ar8EDJDMK6OkeedMCXsSHMgGP9z0ErZ6Q",
	"16": "BKuw0P-P7Ry9lIJwp0mbqWYPn-rozksJ903U-VIjkoetI1xEHuQcurJGG6Xa_aMsNSYJIphYzw698dSA7b_cy14",
	"17": "BD5SimTNP7xS1-8FJnG99AsJEl387M-6eiVXLENBvN68m8BRQOp4PvIGu_gCeGSgoCDCRjnz9oD490f2mizgMW8",
}

// OverrideServerPublicKey swaps a table entry and returns a restore
// function. Meant for tests that stand up a mock server with its own
// keypair.
func OverrideServerPublicKey(id string, sec1 []byte) (restore func()) {
	prev, had := serverPublicKeys[id]
	serverPublicKeys[id] = crypto.BytesToURLSafeStr(sec1)
	return func() {
		if had {
			serverPublicKeys[id] = prev
		} else {
			delete(serverPublicKeys, id)
		}
	}
}

// IsKnownServerKeyID reports whether the table holds the given id
func IsKnownServerKeyID(id string) bool {
	_, ok := serverPublicKeys[id]
	return ok
}

// ServerPublicKey returns the SEC1 point bytes for a key id
func ServerPublicKey(id string) ([]byte, error) {
	encoded, ok := serverPublicKeys[id]
	if !ok {
		return nil, kerr.New(kerr.KindConfig, component, "unknown server public key id %q", id)
	}
	raw, err := crypto.Base64ToBytes(encoded)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindDecode, component, err, "invalid server public key %q", id)
	}
	return raw, nil
}
