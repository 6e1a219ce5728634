package server

import (
	"github.com/KilimcininKorOglu/obacodec/internal/ldap"
)

// describeOperation decodes a request with its operation grammar and returns
// key-value pairs for logging. Operations without a grammar only report
// their size.
func describeOperation(op *ldap.RawOperation) ([]interface{}, error) {
	switch ldap.OperationType(op.Tag) {
	case ldap.ApplicationBindRequest:
		req, err := ldap.ParseBindRequest(op.Data)
		if err != nil {
			return nil, err
		}
		fields := []interface{}{"dn", req.Name, "version", req.Version, "auth", req.AuthMethod.String()}
		if req.SASLCredentials != nil {
			fields = append(fields, "mechanism", req.SASLCredentials.Mechanism)
		}
		return fields, nil
	case ldap.ApplicationSearchRequest:
		req, err := ldap.ParseSearchRequest(op.Data)
		if err != nil {
			return nil, err
		}
		return []interface{}{"base", req.BaseObject, "scope", req.Scope.String(), "filter", req.Filter.String()}, nil
	case ldap.ApplicationAddRequest:
		req, err := ldap.ParseAddRequest(op.Data)
		if err != nil {
			return nil, err
		}
		return []interface{}{"dn", req.Entry, "attributes", len(req.Attributes)}, nil
	case ldap.ApplicationDelRequest:
		req, err := ldap.ParseDeleteRequest(op.Data)
		if err != nil {
			return nil, err
		}
		return []interface{}{"dn", req.DN}, nil
	case ldap.ApplicationModifyRequest:
		req, err := ldap.ParseModifyRequest(op.Data)
		if err != nil {
			return nil, err
		}
		return []interface{}{"dn", req.Object, "changes", len(req.Changes)}, nil
	case ldap.ApplicationModifyDNRequest:
		req, err := ldap.ParseModifyDNRequest(op.Data)
		if err != nil {
			return nil, err
		}
		return []interface{}{"dn", req.Entry, "new_rdn", req.NewRDN, "delete_old_rdn", req.DeleteOldRDN}, nil
	case ldap.ApplicationCompareRequest:
		req, err := ldap.ParseCompareRequest(op.Data)
		if err != nil {
			return nil, err
		}
		return []interface{}{"dn", req.DN, "attribute", req.Attribute}, nil
	default:
		return []interface{}{"bytes", len(op.Data)}, nil
	}
}
