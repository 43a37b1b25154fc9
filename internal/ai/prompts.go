package ai

// QueryAnalysisPrompt asks the model to classify a catalog query. %s is the raw query.
const QueryAnalysisPrompt = `
You analyze search queries typed into a pharmacy product catalog.
Queries may be in English or Arabic, may be misspelled, and may be a drug name,
an active ingredient, a company, a barcode, a symptom or a health condition.

### TASK
Return a JSON object with:
- "keywords": the search terms worth matching against product names
- "entities": typed entities found in the query, each with a confidence between 0 and 1.
  Types: drug_name, active_ingredient, company, category, health_condition, symptom, barcode
- "intent": one of general_search, specific_drug, alternative, symptom_search, health_condition_treatment
- "alternative_queries": up to 3 other spellings or phrasings that should find the same products
- "filters": optional category, manufacturer, ingredient, min_price, max_price stated in the query
- "health_condition": whether the user looks for a treatment, plus the condition and symptoms
- "comment": one short neutral sentence to show next to the results, or ""

Never invent products. Do not give medical advice.

### QUERY
%s
`

// SafetyPointsPrompt asks for three short safety reminders. %s is the condition.
const SafetyPointsPrompt = `
A pharmacy catalog user is looking for products related to: %s

Return a JSON object {"points": [...]} with exactly three short, general safety
reminders for someone looking for medication for this condition. Keep each under
twenty words. Do not recommend specific products or doses.
`

// ConversationPrompt grounds the narrative answer. The first %s is the context
// document, the second the user's message.
const ConversationPrompt = `
You are the assistant of a pharmacy product catalog. Answer the user's message
using ONLY the catalog context below. Mention products by name when relevant,
point out cheaper options when the context shows them, and remind the user to
consult a pharmacist or doctor for medical decisions. Never state facts that
are not in the context. Answer in the language of the user's message, in at most
six sentences, as plain text.

### CATALOG CONTEXT
%s

### USER MESSAGE
%s
`

// ProductDetailPrompt asks for a leaflet summary. Arguments: name, ingredient, manufacturer.
const ProductDetailPrompt = `
Summarize the patient leaflet of the medicine below as a JSON object with the keys
indications, dosage, side_effects, contraindications, interactions, storage_notes,
usage_instructions. Each value is one or two plain sentences. Use "" for anything
you are not sure about.

Trade name: %s
Active ingredient: %s
Manufacturer: %s
`
