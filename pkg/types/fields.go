package types

// fieldTypes is the allowlist of field type names a record template may
// use. Create calls reject anything outside this set.
var fieldTypes = map[string]bool{
	"accountNumber":            true,
	"address":                  true,
	"addressRef":               true,
	"appFiller":                true,
	"bankAccount":              true,
	"birthDate":                true,
	"cardRef":                  true,
	"checkbox":                 true,
	"databaseType":             true,
	"date":                     true,
	"directoryType":            true,
	"dropdown":                 true,
	"email":                    true,
	"expirationDate":           true,
	"fileRef":                  true,
	"host":                     true,
	"isSSIDHidden":             true,
	"keyPair":                  true,
	"licenseNumber":            true,
	"login":                    true,
	"multiline":                true,
	"name":                     true,
	"note":                     true,
	"oneTimeCode":              true,
	"otp":                      true,
	"pamHostname":              true,
	"pamRemoteBrowserSettings": true,
	"pamResources":             true,
	"pamSettings":              true,
	"passkey":                  true,
	"password":                 true,
	"paymentCard":              true,
	"phone":                    true,
	"pinCode":                  true,
	"rbiUrl":                   true,
	"recordRef":                true,
	"schedule":                 true,
	"script":                   true,
	"secret":                   true,
	"securityQuestion":         true,
	"text":                     true,
	"trafficEncryptionSeed":    true,
	"url":                      true,
	"wifiEncryption":           true,
}

// IsValidFieldType reports whether name is an allowed field type
func IsValidFieldType(name string) bool {
	return fieldTypes[name]
}

// ValidateTemplate checks a record template before a create call: the
// title must be non-empty, every field must carry an allowed type, and
// every field value must be an array.
func ValidateTemplate(dict map[string]interface{}) error {
	title, _ := dict["title"].(string)
	if title == "" {
		return newRecordDataError("record title must not be empty")
	}
	for _, section := range []string{"fields", "custom"} {
		arr, ok := dict[section].([]interface{})
		if !ok {
			continue
		}
		for _, f := range arr {
			field, ok := f.(map[string]interface{})
			if !ok {
				return newRecordDataError("%s entries must be objects", section)
			}
			fieldType, _ := field["type"].(string)
			if !IsValidFieldType(fieldType) {
				return newRecordDataError("invalid field type %q", fieldType)
			}
			if _, ok := field["value"].([]interface{}); !ok {
				return newRecordDataError("field %q value must be an array", fieldType)
			}
		}
	}
	return nil
}
