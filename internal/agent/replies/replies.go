// Package replies holds the user-facing message templates for English, Hindi
// and Marathi. Missing translations fall back to English.
package replies

import (
	"fmt"
	"strings"
)

type Key string

const (
	Greeting          Key = "greeting"
	Thanks            Key = "thanks"
	Help              Key = "help"
	Fallback          Key = "fallback"
	ConfirmPrompt     Key = "confirm_prompt"
	ConfirmReprompt   Key = "confirm_reprompt"
	PendingBlocks     Key = "pending_blocks"
	Cancelled         Key = "cancelled"
	PendingExpired    Key = "pending_expired"
	OrderPlaced       Key = "order_placed"
	OrderReplayed     Key = "order_replayed"
	OrderFailed       Key = "order_failed"
	PriceChanged      Key = "price_changed"
	InvalidQuantity   Key = "invalid_quantity"
	NotFound          Key = "not_found"
	NotFoundSuggest   Key = "not_found_suggest"
	NoProductNamed    Key = "no_product_named"
	OutOfStock        Key = "out_of_stock"
	RxRequired        Key = "rx_required"
	Interaction       Key = "interaction"
	PriceUnavailable  Key = "price_unavailable"
	ProductInfo       Key = "product_info"
	RxInfoYes         Key = "rx_info_yes"
	RxInfoNo          Key = "rx_info_no"
	NoSymptoms        Key = "no_symptoms"
	SymptomAdvice     Key = "symptom_advice"
	SymptomOffer      Key = "symptom_offer"
	Urgent            Key = "urgent"
	Recommendations   Key = "recommendations"
	RecommendOrderTip Key = "recommend_order_tip"
	NoRecommendations Key = "no_recommendations"
	CatalogHeader     Key = "catalog_header"
	CatalogMore       Key = "catalog_more"
	CatalogEmpty      Key = "catalog_empty"
	HistoryHeader     Key = "history_header"
	HistoryEmpty      Key = "history_empty"
	RefillsHeader     Key = "refills_header"
	RefillItem        Key = "refill_item"
	RefillsNone       Key = "refills_none"
	Profile           Key = "profile"
	ProfileMissing    Key = "profile_missing"
	UploadRx          Key = "upload_rx"
	FollowUpRecap     Key = "follow_up_recap"
	Unavailable       Key = "unavailable"
)

var templates = map[Key]map[string]string{
	Greeting: {
		"en": "Hello! Welcome to %s. I can help you find medicines, check availability and place orders. How can I help you today?",
		"hi": "नमस्ते! %s में आपका स्वागत है। मैं दवाइयाँ ढूँढने, उपलब्धता जाँचने और ऑर्डर देने में आपकी मदद कर सकता हूँ। आज मैं आपकी क्या मदद करूँ?",
		"mr": "नमस्कार! %s मध्ये आपले स्वागत आहे. मी औषधे शोधणे, उपलब्धता तपासणे आणि ऑर्डर देण्यात मदत करू शकतो. आज मी तुमची काय मदत करू?",
	},
	Thanks: {
		"en": "You're welcome! Let me know if you need anything else.",
		"hi": "आपका स्वागत है! और कुछ चाहिए तो बताइए।",
		"mr": "तुमचे स्वागत आहे! आणखी काही हवे असल्यास सांगा.",
	},
	Help: {
		"en": "Here is what I can do:\n💊 Order medicines\n📋 Show available medicines\n📦 Show your order history\n🔔 Check refill reminders\n📤 Upload a prescription\n🩺 Suggest medicines for common symptoms",
		"hi": "मैं यह कर सकता हूँ:\n💊 दवाइयाँ ऑर्डर करना\n📋 उपलब्ध दवाइयाँ दिखाना\n📦 आपके ऑर्डर दिखाना\n🔔 रिफिल रिमाइंडर\n📤 पर्ची अपलोड करना\n🩺 सामान्य लक्षणों के लिए दवाइयाँ सुझाना",
		"mr": "मी हे करू शकतो:\n💊 औषधे ऑर्डर करणे\n📋 उपलब्ध औषधे दाखवणे\n📦 तुमचे ऑर्डर दाखवणे\n🔔 रिफिल रिमाइंडर\n📤 प्रिस्क्रिप्शन अपलोड करणे\n🩺 सामान्य लक्षणांसाठी औषधे सुचवणे",
	},
	Fallback: {
		"en": "I didn't quite get that. You can ask me to order a medicine, show available medicines, or describe how you're feeling.",
		"hi": "मैं समझ नहीं पाया। आप दवा ऑर्डर करने, उपलब्ध दवाइयाँ देखने या अपने लक्षण बताने के लिए कह सकते हैं।",
		"mr": "मला नीट समजले नाही. तुम्ही औषध ऑर्डर करणे, उपलब्ध औषधे पाहणे किंवा तुमची लक्षणे सांगू शकता.",
	},
	ConfirmPrompt: {
		"en": "I understand you'd like to order %s x %d (total %s%.2f). Could you please confirm by saying 'yes' or 'confirm' to place this order? You can also say 'cancel' to abort.",
		"hi": "मैं समझता हूं कि आप %s x %d (कुल %s%.2f) ऑर्डर करना चाहेंगे। कृपया 'yes' या 'confirm' कहकर इस ऑर्डर की पुष्टि करें? आप 'cancel' भी कह सकते हैं।",
		"mr": "मी समजतो तुम्हाला %s x %d (एकूण %s%.2f) ऑर्डर करायचा आहे. कृपया 'yes' किंवा 'confirm' म्हणून या ऑर्डरची पुष्टी करा. तुम्ही 'cancel' सुद्धा म्हणू शकता.",
	},
	ConfirmReprompt: {
		"en": "I'm not sure if you want to confirm the order for %s x %d. Please say 'yes' to confirm or 'cancel' to abort.",
		"hi": "मुझे यकीन नहीं है कि आप %s x %d का ऑर्डर कन्फर्म करना चाहते हैं। पुष्टि के लिए 'yes' या रद्द करने के लिए 'cancel' कहें।",
		"mr": "तुम्हाला %s x %d चा ऑर्डर कन्फर्म करायचा आहे का हे मला कळले नाही. पुष्टीसाठी 'yes' किंवा रद्द करण्यासाठी 'cancel' म्हणा.",
	},
	PendingBlocks: {
		"en": "You still have an order waiting for confirmation: %s x %d. Please say 'yes' to place it or 'cancel' before we continue with something else.",
		"hi": "आपका एक ऑर्डर पुष्टि की प्रतीक्षा में है: %s x %d। कुछ और करने से पहले कृपया 'yes' या 'cancel' कहें।",
		"mr": "तुमचा एक ऑर्डर पुष्टीच्या प्रतीक्षेत आहे: %s x %d. दुसरे काही करण्यापूर्वी कृपया 'yes' किंवा 'cancel' म्हणा.",
	},
	Cancelled: {
		"en": "No problem! Your order has been cancelled. Let me know if you need anything else.",
		"hi": "कोई बात नहीं! आपका ऑर्डर रद्द कर दिया गया है। और कुछ चाहिए तो बताइए।",
		"mr": "काही हरकत नाही! तुमचा ऑर्डर रद्द केला आहे. आणखी काही हवे असल्यास सांगा.",
	},
	PendingExpired: {
		"en": "Your earlier order for %s expired before it was confirmed, so nothing was placed.",
		"hi": "%s का आपका पिछला ऑर्डर पुष्टि से पहले समाप्त हो गया, इसलिए कोई ऑर्डर नहीं दिया गया।",
		"mr": "%s चा तुमचा आधीचा ऑर्डर पुष्टीपूर्वी कालबाह्य झाला, त्यामुळे कोणताही ऑर्डर दिला गेला नाही.",
	},
	OrderPlaced: {
		"en": "Order placed successfully! Order ID: %s, %s x %d, Total price: %s%.2f",
		"hi": "ऑर्डर सफलतापूर्वक दिया गया! ऑर्डर आईडी: %s, %s x %d, कुल कीमत: %s%.2f",
		"mr": "ऑर्डर यशस्वीरित्या दिला! ऑर्डर आयडी: %s, %s x %d, एकूण किंमत: %s%.2f",
	},
	OrderReplayed: {
		"en": "This order was already placed. Order ID: %s, Total price: %s%.2f",
		"hi": "यह ऑर्डर पहले ही दिया जा चुका है। ऑर्डर आईडी: %s, कुल कीमत: %s%.2f",
		"mr": "हा ऑर्डर आधीच दिला आहे. ऑर्डर आयडी: %s, एकूण किंमत: %s%.2f",
	},
	OrderFailed: {
		"en": "Sorry, I could not complete your order. Please try again.",
		"hi": "क्षमा करें, मैं आपका ऑर्डर पूरा नहीं कर सका। कृपया फिर से प्रयास करें।",
		"mr": "क्षमस्व, मी तुमचा ऑर्डर पूर्ण करू शकलो नाही. कृपया पुन्हा प्रयत्न करा.",
	},
	PriceChanged: {
		"en": "The price of %s has changed from %s%.2f to %s%.2f since I quoted it, so nothing was ordered yet.",
		"hi": "%s की कीमत %s%.2f से बदलकर %s%.2f हो गई है, इसलिए अभी कोई ऑर्डर नहीं दिया गया।",
		"mr": "%s ची किंमत %s%.2f वरून %s%.2f झाली आहे, त्यामुळे अजून कोणताही ऑर्डर दिला नाही.",
	},
	InvalidQuantity: {
		"en": "How many would you like? Please give a quantity of at least 1, for example '2 Paracetamol'.",
		"hi": "आपको कितनी चाहिए? कृपया कम से कम 1 की मात्रा बताएं, जैसे '2 Paracetamol'।",
		"mr": "तुम्हाला किती हवे आहे? कृपया किमान 1 प्रमाण सांगा, उदा. '2 Paracetamol'.",
	},
	NotFound: {
		"en": "I couldn't find '%s' in our inventory. Could you please check the name or ask for alternatives?",
		"hi": "मुझे हमारे स्टॉक में '%s' नहीं मिला। कृपया नाम जाँचें या विकल्प पूछें।",
		"mr": "आमच्या साठ्यात '%s' सापडले नाही. कृपया नाव तपासा किंवा पर्याय विचारा.",
	},
	NotFoundSuggest: {
		"en": " Did you mean: %s?",
		"hi": " क्या आपका मतलब था: %s?",
		"mr": " तुम्हाला हे म्हणायचे होते का: %s?",
	},
	NoProductNamed: {
		"en": "Which medicine would you like? Please tell me the name and quantity, for example '2 Paracetamol'.",
		"hi": "आपको कौन सी दवा चाहिए? कृपया नाम और मात्रा बताएं, जैसे '2 Paracetamol'।",
		"mr": "तुम्हाला कोणते औषध हवे आहे? कृपया नाव आणि प्रमाण सांगा, उदा. '2 Paracetamol'.",
	},
	OutOfStock: {
		"en": "I found %s, but we don't have enough stock for %d. We have %d units available.",
		"hi": "मुझे %s मिला, लेकिन %d के लिए पर्याप्त स्टॉक नहीं है। हमारे पास %d यूनिट उपलब्ध हैं।",
		"mr": "मला %s सापडले, पण %d साठी पुरेसा साठा नाही. आमच्याकडे %d युनिट उपलब्ध आहेत.",
	},
	RxRequired: {
		"en": "%s requires a doctor's prescription. Please upload your prescription and I can place the order once it is on file.",
		"hi": "%s के लिए डॉक्टर की पर्ची आवश्यक है। कृपया अपनी पर्ची अपलोड करें, उसके बाद मैं ऑर्डर दे सकता हूँ।",
		"mr": "%s साठी डॉक्टरांचे प्रिस्क्रिप्शन आवश्यक आहे. कृपया प्रिस्क्रिप्शन अपलोड करा, त्यानंतर मी ऑर्डर देऊ शकतो.",
	},
	Interaction: {
		"en": "DRUG SAFETY ALERT - %s INTERACTION\n\nYou are currently taking: %s\nThe medicine you're trying to order: %s\n\nWarning: %s\n\nRecommendation: %s\n\nPlease consult your doctor or pharmacist before proceeding with this order.",
		"hi": "दवा सुरक्षा चेतावनी - %s इंटरैक्शन\n\nआप अभी ले रहे हैं: %s\nआप जो दवा ऑर्डर कर रहे हैं: %s\n\nचेतावनी: %s\n\nसलाह: %s\n\nकृपया यह ऑर्डर देने से पहले अपने डॉक्टर या फार्मासिस्ट से सलाह लें।",
		"mr": "औषध सुरक्षा इशारा - %s इंटरॅक्शन\n\nतुम्ही सध्या घेत आहात: %s\nतुम्ही ऑर्डर करत असलेले औषध: %s\n\nइशारा: %s\n\nशिफारस: %s\n\nहा ऑर्डर देण्यापूर्वी कृपया तुमच्या डॉक्टर किंवा फार्मासिस्टचा सल्ला घ्या.",
	},
	PriceUnavailable: {
		"en": "Sorry, the price for %s is not available right now, so I can't place this order.",
		"hi": "क्षमा करें, %s की कीमत अभी उपलब्ध नहीं है, इसलिए मैं यह ऑर्डर नहीं दे सकता।",
		"mr": "क्षमस्व, %s ची किंमत सध्या उपलब्ध नाही, त्यामुळे मी हा ऑर्डर देऊ शकत नाही.",
	},
	ProductInfo: {
		"en": "Here are the details for %s:\n\n📦 Stock: %d units available\n💰 Price: %s%.2f\n%s\n\nWould you like to place an order for this medicine?",
		"hi": "%s का विवरण:\n\n📦 स्टॉक: %d यूनिट उपलब्ध\n💰 कीमत: %s%.2f\n%s\n\nक्या आप इस दवा का ऑर्डर देना चाहेंगे?",
		"mr": "%s चा तपशील:\n\n📦 स्टॉक: %d युनिट उपलब्ध\n💰 किंमत: %s%.2f\n%s\n\nतुम्हाला या औषधाचा ऑर्डर द्यायचा आहे का?",
	},
	RxInfoYes: {
		"en": "ℹ️ Prescription required: yes, you'll need a doctor's prescription for this medicine.",
		"hi": "ℹ️ पर्ची आवश्यक: हाँ, इस दवा के लिए डॉक्टर की पर्ची चाहिए।",
		"mr": "ℹ️ प्रिस्क्रिप्शन आवश्यक: होय, या औषधासाठी डॉक्टरांचे प्रिस्क्रिप्शन लागेल.",
	},
	RxInfoNo: {
		"en": "ℹ️ Prescription required: no, you can buy this medicine without a prescription.",
		"hi": "ℹ️ पर्ची आवश्यक: नहीं, यह दवा बिना पर्ची के खरीदी जा सकती है।",
		"mr": "ℹ️ प्रिस्क्रिप्शन आवश्यक: नाही, हे औषध प्रिस्क्रिप्शनशिवाय मिळू शकते.",
	},
	NoSymptoms: {
		"en": "I couldn't identify specific symptoms. Could you please describe how you're feeling?",
		"hi": "मुझे विशिष्ट लक्षण पहचानने में कठिनाई हुई। कृपया बताएं आप कैसा महसूस कर रहे हैं?",
		"mr": "मला विशिष्ट लक्षणे ओळखता आली नाहीत. कृपया सांगा तुम्हाला काय वाटते?",
	},
	SymptomAdvice: {
		"en": "Based on what you've described (%s), this may be associated with %s. This is not a diagnosis.\n\n%s",
		"hi": "आपने जो बताया है (%s), वह %s से जुड़ा हो सकता है। यह निदान नहीं है।\n\n%s",
		"mr": "तुम्ही वर्णन केलेल्या (%s) वरून, हे %s शी संबंधित असू शकते. हे निदान नाही.\n\n%s",
	},
	SymptomOffer: {
		"en": "Would you like me to suggest medicines from our catalog that might help?",
		"hi": "क्या आप चाहेंगे कि मैं हमारी सूची से मददगार दवाइयाँ सुझाऊँ?",
		"mr": "तुम्हाला आमच्या यादीतून उपयोगी औषधे सुचवू का?",
	},
	Urgent: {
		"en": "⚠️ %s can be a sign of a serious problem. Please seek medical care immediately or call emergency services. I can't recommend medicines for this.",
		"hi": "⚠️ %s किसी गंभीर समस्या का संकेत हो सकता है। कृपया तुरंत चिकित्सा सहायता लें या आपातकालीन सेवा को कॉल करें।",
		"mr": "⚠️ %s हे गंभीर समस्येचे लक्षण असू शकते. कृपया त्वरित वैद्यकीय मदत घ्या किंवा आपत्कालीन सेवेला कॉल करा.",
	},
	Recommendations: {
		"en": "Here are some medicines from our catalog that may help:\n%s",
		"hi": "हमारी सूची की कुछ दवाइयाँ जो मदद कर सकती हैं:\n%s",
		"mr": "आमच्या यादीतील काही औषधे जी उपयोगी ठरू शकतात:\n%s",
	},
	RecommendOrderTip: {
		"en": "To order, say for example 'order the first one' or 'buy 2 of the second'. Please check with a pharmacist if you are unsure.",
		"hi": "ऑर्डर के लिए कहें, जैसे 'पहली वाली ऑर्डर करो'। संदेह हो तो फार्मासिस्ट से पूछें।",
		"mr": "ऑर्डरसाठी म्हणा, उदा. 'पहिले ऑर्डर करा'. शंका असल्यास फार्मासिस्टला विचारा.",
	},
	NoRecommendations: {
		"en": "I couldn't find a suitable medicine in our catalog for that. Please consult a pharmacist or doctor.",
		"hi": "मुझे हमारी सूची में इसके लिए उपयुक्त दवा नहीं मिली। कृपया फार्मासिस्ट या डॉक्टर से सलाह लें।",
		"mr": "यासाठी आमच्या यादीत योग्य औषध सापडले नाही. कृपया फार्मासिस्ट किंवा डॉक्टरांचा सल्ला घ्या.",
	},
	CatalogHeader: {
		"en": "📋 Available medicines:\n",
		"hi": "📋 उपलब्ध दवाइयाँ:\n",
		"mr": "📋 उपलब्ध औषधे:\n",
	},
	CatalogMore: {
		"en": "... and %d more",
		"hi": "... और %d अधिक",
		"mr": "... आणि आणखी %d",
	},
	CatalogEmpty: {
		"en": "Our catalog is empty right now.",
		"hi": "अभी हमारी सूची खाली है।",
		"mr": "सध्या आमची यादी रिकामी आहे.",
	},
	HistoryHeader: {
		"en": "📦 Your recent orders:\n",
		"hi": "📦 आपके हाल के ऑर्डर:\n",
		"mr": "📦 तुमचे अलीकडील ऑर्डर:\n",
	},
	HistoryEmpty: {
		"en": "You haven't placed any orders yet. Would you like to order some medicines?",
		"hi": "आपने अभी तक कोई ऑर्डर नहीं दिया है। क्या आप कोई दवा ऑर्डर करना चाहेंगे?",
		"mr": "तुम्ही अजून कोणताही ऑर्डर दिलेला नाही. तुम्हाला औषध ऑर्डर करायचे आहे का?",
	},
	RefillsHeader: {
		"en": "🔔 Your upcoming refills:\n",
		"hi": "🔔 आपकी आगामी रिफिल:\n",
		"mr": "🔔 तुमची आगामी रिफिल:\n",
	},
	RefillItem: {
		"en": "• %s - in %d days",
		"hi": "• %s - %d दिनों में",
		"mr": "• %s - %d दिवसांमध्ये",
	},
	RefillsNone: {
		"en": "✅ You don't have any refills due right now. We'll remind you in time!",
		"hi": "✅ अभी आपको कोई रिफिल की आवश्यकता नहीं है। हम आपको समय पर याद दिलाएंगे!",
		"mr": "✅ सध्या तुम्हाला कोणत्याही रिफिलची गरज नाही. आम्ही तुम्हाला वेळेवर आठवण करू!",
	},
	Profile: {
		"en": "👤 Your profile:\nName: %s\nPhone: %s\nEmail: %s\nPreferred language: %s",
		"hi": "👤 आपकी प्रोफ़ाइल:\nनाम: %s\nफ़ोन: %s\nईमेल: %s\nपसंदीदा भाषा: %s",
		"mr": "👤 तुमची प्रोफाइल:\nनाव: %s\nफोन: %s\nईमेल: %s\nपसंतीची भाषा: %s",
	},
	ProfileMissing: {
		"en": "I couldn't find your profile. Please check your email or phone number.",
		"hi": "मुझे आपकी प्रोफ़ाइल नहीं मिली। कृपया अपना ईमेल या फ़ोन नंबर जाँचें।",
		"mr": "मला तुमची प्रोफाइल सापडली नाही. कृपया तुमचा ईमेल किंवा फोन नंबर तपासा.",
	},
	UploadRx: {
		"en": "📤 To upload a prescription, use the prescription upload option and attach a clear photo of it. Once it is processed, the medicines on it can be ordered.",
		"hi": "📤 पर्ची अपलोड करने के लिए अपलोड विकल्प चुनें और पर्ची की साफ़ फ़ोटो लगाएं। प्रोसेस होने के बाद उस पर लिखी दवाइयाँ ऑर्डर की जा सकती हैं।",
		"mr": "📤 प्रिस्क्रिप्शन अपलोड करण्यासाठी अपलोड पर्याय निवडा आणि स्पष्ट फोटो जोडा. प्रक्रिया झाल्यावर त्यावरील औषधे ऑर्डर करता येतील.",
	},
	FollowUpRecap: {
		"en": "Earlier I suggested: %s. Would you like to order one of them?",
		"hi": "पहले मैंने सुझाया था: %s। क्या आप इनमें से कोई ऑर्डर करना चाहेंगे?",
		"mr": "आधी मी सुचवले होते: %s. यापैकी एखादे ऑर्डर करायचे आहे का?",
	},
	Unavailable: {
		"en": "Sorry, I'm having trouble fetching that right now. Please try again in a moment.",
		"hi": "क्षमा करें, अभी यह जानकारी लाने में समस्या है। कृपया थोड़ी देर बाद फिर प्रयास करें।",
		"mr": "क्षमस्व, सध्या ही माहिती आणण्यात अडचण येत आहे. कृपया थोड्या वेळाने पुन्हा प्रयत्न करा.",
	},
}

// Render formats the template for key in lang.
func Render(lang string, key Key, args ...any) string {
	byLang, ok := templates[key]
	if !ok {
		return ""
	}
	tpl, ok := byLang[lang]
	if !ok {
		tpl = byLang["en"]
	}
	if len(args) == 0 {
		return tpl
	}
	return fmt.Sprintf(tpl, args...)
}

// Bullets renders one "• item" line per entry.
func Bullets(items []string) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• ")
		b.WriteString(it)
	}
	return b.String()
}
