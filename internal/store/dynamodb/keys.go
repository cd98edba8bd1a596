package dynamodb

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Single-table key scheme: every item's partition groups it with its
// naturally co-queried siblings (a resource's annotations/citations), and
// EntityType lets a table-wide scan filter by kind. Mirrors the teacher's
// BuildUserPK-style helpers, generalized from a per-user partition to a
// per-resource one since Neo Alexandria is single-tenant per deployment.
const (
	entityTypeResource   = "RESOURCE"
	entityTypeAnnotation = "ANNOTATION"
	entityTypeCollection = "COLLECTION"
	entityTypeTaxonomy   = "TAXONOMY"
	entityTypeAssignment = "ASSIGNMENT"
	entityTypeCitation   = "CITATION"
)

func resourcePK(id string) string { return fmt.Sprintf("RESOURCE#%s", id) }
func metaSK() string               { return "META" }

func annotationSK(id string) string { return fmt.Sprintf("ANNOTATION#%s", id) }
func citationSK(id string) string   { return fmt.Sprintf("CITATION#%s", id) }

func collectionPK(id string) string { return fmt.Sprintf("COLLECTION#%s", id) }
func taxonomyPK(id string) string   { return fmt.Sprintf("TAXONOMY#%s", id) }
func assignmentSK(nodeID string) string { return fmt.Sprintf("ASSIGNMENT#%s", nodeID) }

func StringAttr(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"PK": StringAttr(pk), "SK": StringAttr(sk)}
}
